package metadata

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyNullableDefaults(t *testing.T) {
	tests := []struct {
		name   string
		goType reflect.Type
		want   bool
	}{
		{name: "int", goType: intType, want: false},
		{name: "string", goType: stringType, want: false},
		{name: "pointer", goType: strPtrType, want: true},
		{name: "slice", goType: reflect.TypeOf([]byte(nil)), want: true},
		{name: "sql null", goType: reflect.TypeOf(sql.NullInt64{}), want: true},
		{name: "generic sql null", goType: reflect.TypeOf(sql.Null[int]{}), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEntity(t, NewModel(), "E")
			p := mustProperty(t, e, "P", tt.goType)
			assert.Equal(t, tt.want, p.IsNullable())
		})
	}
}

func TestPropertyNullableInPrimaryKey(t *testing.T) {
	e := mustEntity(t, NewModel(), "E")
	code := mustProperty(t, e, "Code", strPtrType)
	assert.True(t, code.IsNullable())

	_, err := e.SetPrimaryKey(code)
	require.NoError(t, err)
	assert.False(t, code.IsNullable())

	err = code.SetIsNullable(true)
	require.Error(t, err)
	assert.False(t, code.IsNullable())

	count := mustProperty(t, e, "Count", intType)
	require.Error(t, count.SetIsNullable(true))
	require.NoError(t, count.SetIsNullable(false))
	assert.False(t, count.IsNullable())
}

func TestPropertyThreeStateFlags(t *testing.T) {
	e := mustEntity(t, NewModel(), "E")
	p := mustProperty(t, e, "Stamp", intType)

	assert.Equal(t, Never, p.ValueGenerated())
	assert.False(t, p.IsReadOnlyBeforeSave())
	assert.False(t, p.IsReadOnlyAfterSave())

	p.SetValueGenerated(OnAddOrUpdate)
	assert.True(t, p.IsReadOnlyBeforeSave())
	assert.True(t, p.IsReadOnlyAfterSave())

	p.SetStoreGeneratedAlways(true)
	assert.False(t, p.IsReadOnlyBeforeSave())
	assert.False(t, p.IsReadOnlyAfterSave())

	p.SetIsReadOnlyBeforeSave(true)
	assert.True(t, p.IsReadOnlyBeforeSave())
	p.ClearIsReadOnlyBeforeSave()
	assert.False(t, p.IsReadOnlyBeforeSave())

	p.ClearStoreGeneratedAlways()
	p.ClearValueGenerated()
	assert.Equal(t, Never, p.ValueGenerated())
	assert.False(t, p.IsReadOnlyBeforeSave())

	p.SetValueGenerated(Never)
	assert.Equal(t, Never, p.ValueGenerated())
}

func TestKeyPropertyMustBeReadOnlyAfterSave(t *testing.T) {
	e := mustEntity(t, NewModel(), "E")
	id := mustProperty(t, e, "Id", intType)
	_, err := e.AddKey(id)
	require.NoError(t, err)

	assert.True(t, id.IsReadOnlyAfterSave())
	require.ErrorIs(t, id.SetIsReadOnlyAfterSave(false), ErrKeyPropertyMustBeReadOnly)
	require.NoError(t, id.SetIsReadOnlyAfterSave(true))

	other := mustProperty(t, e, "Name", stringType)
	require.NoError(t, other.SetIsReadOnlyAfterSave(true))
	assert.True(t, other.IsReadOnlyAfterSave())
	other.ClearIsReadOnlyAfterSave()
	assert.False(t, other.IsReadOnlyAfterSave())
}

func TestAddPropertyValidation(t *testing.T) {
	e := mustEntity(t, NewModel(), "E")

	_, err := e.AddProperty("", intType)
	require.Error(t, err)

	_, err = e.AddProperty("NoType", nil)
	require.Error(t, err)

	p := mustProperty(t, e, "Name", stringType)
	_, err = e.AddProperty("Name", stringType)
	require.ErrorIs(t, err, ErrDuplicateProperty)

	got, err := e.GetOrAddProperty("Name", stringType)
	require.NoError(t, err)
	assert.Same(t, p, got)
}
