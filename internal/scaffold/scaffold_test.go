package scaffold

import (
	"database/sql"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tordrt/xgscaffold/internal/schema"
	"github.com/tordrt/xgscaffold/metadata"
)

func ptr[T any](v T) *T { return &v }

type tableBuilder struct {
	table *schema.Table
}

func newTable(db *schema.DatabaseModel, name string) *tableBuilder {
	table := &schema.Table{Database: db, Name: name}
	db.Tables = append(db.Tables, table)
	return &tableBuilder{table: table}
}

func (b *tableBuilder) column(name, storeType string, nullable bool) *schema.Column {
	column := &schema.Column{Table: b.table, Name: name, StoreType: storeType, IsNullable: nullable}
	b.table.Columns = append(b.table.Columns, column)
	return column
}

func (b *tableBuilder) primaryKey(columns ...*schema.Column) {
	b.table.PrimaryKey = &schema.PrimaryKey{Table: b.table, Name: "PRIMARY", Columns: columns}
}

func (b *tableBuilder) index(name string, unique bool, columns ...*schema.Column) *schema.Index {
	index := &schema.Index{Table: b.table, Name: name, IsUnique: unique, Columns: columns}
	b.table.Indexes = append(b.table.Indexes, index)
	return index
}

func (b *tableBuilder) foreignKey(name string, principal *tableBuilder, onDelete *schema.ReferentialAction, columns, principalColumns []*schema.Column) {
	b.table.ForeignKeys = append(b.table.ForeignKeys, &schema.ForeignKey{
		Table:            b.table,
		Name:             name,
		Columns:          columns,
		PrincipalTable:   principal.table,
		PrincipalColumns: principalColumns,
		OnDelete:         onDelete,
	})
}

func shopModel() *schema.DatabaseModel {
	db := &schema.DatabaseModel{DatabaseName: "shop", Collation: "utf8mb4_0900_ai_ci"}
	db.SetAnnotation(schema.CharSet, "utf8mb4")

	users := newTable(db, "users")
	userID := users.column("id", "int", false)
	userID.ValueGenerated = ptr(metadata.OnAdd)
	email := users.column("email", "varchar(255)", false)
	managerID := users.column("manager_id", "int", true)
	users.primaryKey(userID)
	users.index("ix_email", true, email)
	users.foreignKey("fk_manager", users, ptr(schema.SetNull), []*schema.Column{managerID}, []*schema.Column{userID})

	orders := newTable(db, "orders")
	orders.table.Comment = "placed orders"
	orderID := orders.column("id", "bigint", false)
	buyerID := orders.column("buyer_id", "int", false)
	sellerID := orders.column("seller_id", "int", true)
	orders.column("total", "decimal(10,2)", false)
	updatedAt := orders.column("updated_at", "timestamp(6)", false)
	updatedAt.ValueGenerated = ptr(metadata.OnAddOrUpdate)
	updatedAt.DefaultValueSQL = ptr("CURRENT_TIMESTAMP(6)")
	note := orders.column("note", "text", true)
	note.SetAnnotation(schema.CharSet, "latin1")
	note.Comment = "free text"
	doubled := orders.column("doubled", "decimal(10,2)", true)
	doubled.ComputedColumnSQL = ptr("`total` * 2")
	doubled.IsStored = ptr(false)
	orders.primaryKey(orderID)
	orders.foreignKey("fk_buyer", users, ptr(schema.Cascade), []*schema.Column{buyerID}, []*schema.Column{userID})
	orders.foreignKey("fk_seller", users, nil, []*schema.Column{sellerID}, []*schema.Column{userID})

	view := newTable(db, "v_orders")
	view.table.IsView = true
	view.column("id", "bigint", false)

	return db
}

func navigationNames(entity *metadata.EntityType) []string {
	var names []string
	for _, n := range entity.Navigations() {
		names = append(names, n.Name())
	}
	return names
}

func TestScaffoldEntityTypesAndProperties(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	model, err := New(zap.New(core)).Scaffold(shopModel())
	require.NoError(t, err)

	collation, _ := model.Annotation(schema.Collation)
	assert.Equal(t, "utf8mb4_0900_ai_ci", collation)
	charset, _ := model.Annotation(schema.CharSet)
	assert.Equal(t, "utf8mb4", charset)

	assert.Nil(t, model.FindEntityType("VOrder"))
	assert.Equal(t, 1, logs.FilterMessage("skipping view without key").Len())

	user := model.FindEntityType("User")
	require.NotNil(t, user)
	tableName, _ := user.Annotation(TableName)
	assert.Equal(t, "users", tableName)

	id := user.FindProperty("Id")
	require.NotNil(t, id)
	assert.Equal(t, reflect.TypeFor[int32](), id.GoType())
	assert.Equal(t, metadata.OnAdd, id.ValueGenerated())
	assert.True(t, id.IsPrimaryKey())
	assert.True(t, id.IsShadowProperty())

	managerID := user.FindProperty("ManagerId")
	require.NotNil(t, managerID)
	assert.Equal(t, reflect.TypeFor[sql.NullInt32](), managerID.GoType())
	assert.True(t, managerID.IsNullable())

	order := model.FindEntityType("Order")
	require.NotNil(t, order)
	comment, _ := order.Annotation(Comment)
	assert.Equal(t, "placed orders", comment)

	total := order.FindProperty("Total")
	require.NotNil(t, total)
	assert.Equal(t, reflect.TypeFor[string](), total.GoType())
	assert.False(t, total.IsNullable())
	columnType, _ := total.Annotation(ColumnType)
	assert.Equal(t, "decimal(10,2)", columnType)

	updatedAt := order.FindProperty("UpdatedAt")
	require.NotNil(t, updatedAt)
	assert.True(t, updatedAt.IsConcurrencyToken())
	assert.Equal(t, metadata.OnAddOrUpdate, updatedAt.ValueGenerated())
	defaultSQL, _ := updatedAt.Annotation(DefaultValueSQL)
	assert.Equal(t, "CURRENT_TIMESTAMP(6)", defaultSQL)

	note := order.FindProperty("Note")
	require.NotNil(t, note)
	assert.Equal(t, reflect.TypeFor[sql.NullString](), note.GoType())
	noteCharSet, _ := note.Annotation(schema.CharSet)
	assert.Equal(t, "latin1", noteCharSet)
	noteComment, _ := note.Annotation(Comment)
	assert.Equal(t, "free text", noteComment)
	columnName, _ := note.Annotation(ColumnName)
	assert.Equal(t, "note", columnName)

	doubled := order.FindProperty("Doubled")
	require.NotNil(t, doubled)
	assert.Equal(t, metadata.OnAddOrUpdate, doubled.ValueGenerated())
	assert.True(t, doubled.StoreGeneratedAlways())
	computed, _ := doubled.Annotation(ComputedColumnSQL)
	assert.Equal(t, "`total` * 2", computed)
	stored, _ := doubled.Annotation(IsStored)
	assert.Equal(t, false, stored)
}

func TestScaffoldKeysIndexesAndForeignKeys(t *testing.T) {
	model, err := New(nil).Scaffold(shopModel())
	require.NoError(t, err)

	user := model.FindEntityType("User")
	order := model.FindEntityType("Order")
	require.NotNil(t, user)
	require.NotNil(t, order)

	pk := user.FindPrimaryKey()
	require.NotNil(t, pk)
	pkName, _ := pk.Annotation(Name)
	assert.Equal(t, "PRIMARY", pkName)

	email := user.FindIndex(user.FindProperty("Email"))
	require.NotNil(t, email)
	assert.True(t, email.IsUnique())
	indexName, _ := email.Annotation(Name)
	assert.Equal(t, "ix_email", indexName)

	manager := user.FindForeignKey(user.FindProperty("ManagerId"))
	require.NotNil(t, manager)
	assert.True(t, manager.IsSelfReferencing())
	assert.False(t, manager.IsUnique())
	assert.Equal(t, metadata.DeleteSetNull, manager.DeleteBehavior())
	assert.Same(t, pk, manager.PrincipalKey())

	buyer := order.FindForeignKey(order.FindProperty("BuyerId"))
	require.NotNil(t, buyer)
	assert.Equal(t, metadata.DeleteCascade, buyer.DeleteBehavior())
	fkName, _ := buyer.Annotation(Name)
	assert.Equal(t, "fk_buyer", fkName)

	seller := order.FindForeignKey(order.FindProperty("SellerId"))
	require.NotNil(t, seller)
	assert.Equal(t, metadata.DeleteNoAction, seller.DeleteBehavior())
}

func TestScaffoldNavigations(t *testing.T) {
	model, err := New(nil).Scaffold(shopModel())
	require.NoError(t, err)

	user := model.FindEntityType("User")
	order := model.FindEntityType("Order")

	if diff := cmp.Diff([]string{"InverseManager", "Manager", "Orders", "OrdersSeller"}, navigationNames(user)); diff != "" {
		t.Errorf("User navigations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Buyer", "Seller"}, navigationNames(order)); diff != "" {
		t.Errorf("Order navigations mismatch (-want +got):\n%s", diff)
	}

	orders := user.FindNavigation("Orders")
	require.NotNil(t, orders)
	assert.True(t, orders.IsCollection())
	assert.Same(t, order, orders.TargetType())

	buyer := order.FindNavigation("Buyer")
	require.NotNil(t, buyer)
	assert.True(t, buyer.PointsToPrincipal())
	assert.Same(t, orders.ForeignKey(), buyer.ForeignKey())

	inverse := user.FindNavigation("InverseManager")
	require.NotNil(t, inverse)
	assert.False(t, inverse.PointsToPrincipal())
}

func TestScaffoldAlternateKeyAndUniqueForeignKey(t *testing.T) {
	db := &schema.DatabaseModel{DatabaseName: "catalog"}

	products := newTable(db, "products")
	productID := products.column("id", "int", false)
	sku := products.column("sku", "varchar(32)", false)
	products.primaryKey(productID)

	details := newTable(db, "product_details")
	productSku := details.column("product_sku", "varchar(32)", false)
	details.primaryKey(productSku)
	details.foreignKey("fk_detail_product", products, ptr(schema.Restrict),
		[]*schema.Column{productSku}, []*schema.Column{sku})

	model, err := New(nil).Scaffold(db)
	require.NoError(t, err)

	product := model.FindEntityType("Product")
	detail := model.FindEntityType("ProductDetail")
	require.NotNil(t, product)
	require.NotNil(t, detail)

	alternate := product.FindKey(product.FindProperty("Sku"))
	require.NotNil(t, alternate)
	assert.False(t, alternate.IsPrimaryKey())

	fk := detail.FindForeignKey(detail.FindProperty("ProductSku"))
	require.NotNil(t, fk)
	assert.Same(t, alternate, fk.PrincipalKey())
	assert.True(t, fk.IsUnique())
	assert.Equal(t, metadata.DeleteRestrict, fk.DeleteBehavior())

	require.NotNil(t, detail.FindNavigation("Product"))
	toDependent := product.FindNavigation("ProductDetail")
	require.NotNil(t, toDependent)
	assert.False(t, toDependent.IsCollection())
}

func TestScaffoldUniqueNames(t *testing.T) {
	db := &schema.DatabaseModel{}

	singular := newTable(db, "user")
	singular.primaryKey(singular.column("id", "int", false))

	plural := newTable(db, "users")
	plural.primaryKey(plural.column("id", "int", false))
	plural.column("user_id", "int", false)
	plural.column("UserId", "int", false)

	notes := newTable(db, "notes")
	notes.primaryKey(notes.column("id", "int", false))
	notes.column("note", "text", false)

	model, err := New(nil).Scaffold(db)
	require.NoError(t, err)

	require.NotNil(t, model.FindEntityType("User"))
	second := model.FindEntityType("User1")
	require.NotNil(t, second)
	tableName, _ := second.Annotation(TableName)
	assert.Equal(t, "users", tableName)
	assert.NotNil(t, second.FindProperty("UserId"))
	renamed := second.FindProperty("UserId1")
	require.NotNil(t, renamed)
	columnName, _ := renamed.Annotation(ColumnName)
	assert.Equal(t, "UserId", columnName)

	note := model.FindEntityType("Note")
	require.NotNil(t, note)
	assert.Nil(t, note.FindProperty("Note"))
	assert.NotNil(t, note.FindProperty("Note1"))
}

func TestScaffoldLogsRejectedIndexesAndForeignKeys(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	db := &schema.DatabaseModel{}
	view := newTable(db, "v_accounts")
	view.table.IsView = true
	viewID := view.column("id", "int", false)

	accounts := newTable(db, "accounts")
	id := accounts.column("id", "int", false)
	name := accounts.column("name", "varchar(50)", false)
	accountViewID := accounts.column("view_id", "int", false)
	accounts.primaryKey(id)
	accounts.index("ix_name", false, name)
	accounts.index("ux_name", true, name)
	accounts.foreignKey("fk_view", view, nil, []*schema.Column{accountViewID}, []*schema.Column{viewID})

	model, err := New(zap.New(core)).Scaffold(db)
	require.NoError(t, err)

	account := model.FindEntityType("Account")
	require.NotNil(t, account)
	assert.Len(t, account.Indexes(), 1)
	assert.Empty(t, account.DeclaredForeignKeys())

	assert.Equal(t, 1, logs.FilterMessage("unable to scaffold index").Len())
	fkLogs := logs.FilterMessage("unable to scaffold foreign key to a table without entity type").All()
	require.Len(t, fkLogs, 1)
	assert.Equal(t, "v_accounts", fkLogs[0].ContextMap()["referencedTable"])
}

func TestGoType(t *testing.T) {
	tests := []struct {
		storeType string
		nullable  bool
		want      reflect.Type
	}{
		{"tinyint(1)", false, reflect.TypeFor[bool]()},
		{"tinyint(1)", true, reflect.TypeFor[sql.NullBool]()},
		{"bit(1)", false, reflect.TypeFor[bool]()},
		{"bit(8)", false, reflect.TypeFor[uint64]()},
		{"tinyint", false, reflect.TypeFor[int8]()},
		{"tinyint unsigned", true, reflect.TypeFor[sql.NullByte]()},
		{"smallint", true, reflect.TypeFor[sql.NullInt16]()},
		{"mediumint unsigned", false, reflect.TypeFor[uint32]()},
		{"int", true, reflect.TypeFor[sql.NullInt32]()},
		{"bigint", true, reflect.TypeFor[sql.NullInt64]()},
		{"bigint unsigned", true, reflect.TypeFor[*uint64]()},
		{"float", true, reflect.TypeFor[*float32]()},
		{"double", true, reflect.TypeFor[sql.NullFloat64]()},
		{"decimal(18,4)", false, reflect.TypeFor[string]()},
		{"datetime(6)", true, reflect.TypeFor[sql.NullTime]()},
		{"time(3)", false, reflect.TypeFor[time.Duration]()},
		{"json", true, reflect.TypeFor[json.RawMessage]()},
		{"binary(16)", false, reflect.TypeFor[[16]byte]()},
		{"varbinary(100)", true, reflect.TypeFor[[]byte]()},
		{"point", false, reflect.TypeFor[[]byte]()},
		{"enum('a','b')", false, reflect.TypeFor[string]()},
		{"varchar(20)", true, reflect.TypeFor[sql.NullString]()},
	}

	for _, tt := range tests {
		t.Run(tt.storeType, func(t *testing.T) {
			got := GoType(&schema.Column{StoreType: tt.storeType, IsNullable: tt.nullable})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "OrderItem", EntityName("order_items"))
	assert.Equal(t, "Category", EntityName("categories"))
	assert.Equal(t, "User", EntityName("users"))
	assert.Equal(t, "UserId", PropertyName("user_id"))
	assert.Equal(t, "CreatedAt", PropertyName("created_at"))
}
