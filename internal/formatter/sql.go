package formatter

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/tordrt/xgscaffold/internal/ddl"
	"github.com/tordrt/xgscaffold/internal/schema"
	"github.com/tordrt/xgscaffold/serverversion"
)

// SQLFormatter renders the schema back into DDL for one server version
type SQLFormatter struct {
	writer    io.Writer
	generator *ddl.Generator
}

// NewSQLFormatter creates a DDL formatter. A nil version renders for the
// latest supported server.
func NewSQLFormatter(w io.Writer, version *serverversion.ServerVersion, logger *zap.Logger) *SQLFormatter {
	return &SQLFormatter{writer: w, generator: ddl.NewGenerator(version, logger)}
}

// Format writes the DDL script
func (f *SQLFormatter) Format(db *schema.DatabaseModel) error {
	script, err := f.generator.Script(db)
	if err != nil {
		return fmt.Errorf("failed to render ddl: %w", err)
	}
	_, err = io.WriteString(f.writer, script)
	return err
}
