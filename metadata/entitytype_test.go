package metadata

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	intType    = reflect.TypeOf(0)
	stringType = reflect.TypeOf("")
	strPtrType = reflect.TypeOf((*string)(nil))
)

type customer struct {
	ID   int
	Name string
}

type notifyingOrder struct {
	ID int
}

func (o *notifyingOrder) OnPropertyChanged(func(string)) {}

func mustProperty(t *testing.T, e *EntityType, name string, goType reflect.Type) *Property {
	t.Helper()
	p, err := e.AddProperty(name, goType)
	require.NoError(t, err)
	return p
}

func mustEntity(t *testing.T, m *Model, name string) *EntityType {
	t.Helper()
	e, err := m.AddEntityType(name)
	require.NoError(t, err)
	return e
}

func TestPropertyNumberingWithStructType(t *testing.T) {
	m := NewModel()
	e, err := m.AddEntityTypeFor(reflect.TypeOf(customer{}))
	require.NoError(t, err)
	assert.Equal(t, "customer", e.Name())

	id, err := e.AddPropertyFor("ID")
	require.NoError(t, err)
	name, err := e.AddPropertyFor("Name")
	require.NoError(t, err)
	mane := mustProperty(t, e, "Mane", stringType)

	_, err = e.SetPrimaryKey(id)
	require.NoError(t, err)

	assert.Equal(t, []*Property{id, mane, name}, e.Properties())

	assert.Equal(t, 0, id.Index())
	assert.Equal(t, 1, mane.Index())
	assert.Equal(t, 2, name.Index())

	assert.Equal(t, -1, id.ShadowIndex())
	assert.Equal(t, 0, mane.ShadowIndex())
	assert.Equal(t, -1, name.ShadowIndex())

	assert.False(t, id.IsShadowProperty())
	assert.True(t, mane.IsShadowProperty())

	// struct types snapshot every property
	assert.True(t, e.UseEagerSnapshots())
	assert.Equal(t, 0, id.OriginalValueIndex())
	assert.Equal(t, 1, mane.OriginalValueIndex())
	assert.Equal(t, 2, name.OriginalValueIndex())
	assert.Equal(t, 3, e.OriginalValueCount())

	name.SetIsShadowProperty(true)
	assert.Equal(t, 1, name.ShadowIndex())
	assert.Equal(t, 2, e.ShadowPropertyCount())
}

func TestAddPropertyForRequiresGoType(t *testing.T) {
	m := NewModel()
	e := mustEntity(t, m, "Shadow")

	_, err := e.AddPropertyFor("ID")
	require.Error(t, err)

	structType, err := m.AddEntityTypeFor(reflect.TypeOf(&customer{}))
	require.NoError(t, err)
	_, err = structType.AddPropertyFor("Missing")
	require.Error(t, err)
}

func TestUseEagerSnapshotsDefaults(t *testing.T) {
	m := NewModel()

	shadow := mustEntity(t, m, "Shadow")
	assert.False(t, shadow.UseEagerSnapshots())

	notifying, err := m.AddEntityTypeFor(reflect.TypeOf(notifyingOrder{}))
	require.NoError(t, err)
	assert.False(t, notifying.UseEagerSnapshots())

	plain, err := m.AddEntityTypeFor(reflect.TypeOf(customer{}))
	require.NoError(t, err)
	assert.True(t, plain.UseEagerSnapshots())

	plain.SetUseEagerSnapshots(false)
	assert.False(t, plain.UseEagerSnapshots())
}

func TestIndexesCascadeToDerivedTypes(t *testing.T) {
	m := NewModel()
	animal := mustEntity(t, m, "Animal")
	dog := mustEntity(t, m, "Dog")

	id := mustProperty(t, animal, "Id", intType)
	name := mustProperty(t, animal, "Name", stringType)
	_, err := animal.SetPrimaryKey(id)
	require.NoError(t, err)

	breed := mustProperty(t, dog, "Breed", stringType)
	require.NoError(t, dog.SetBaseType(animal))

	assert.Equal(t, 0, id.Index())
	assert.Equal(t, 1, name.Index())
	assert.Equal(t, 2, breed.Index())
	assert.Equal(t, 3, dog.PropertyCount())
	assert.Equal(t, 2, animal.PropertyCount())

	age := mustProperty(t, animal, "Age", intType)
	assert.Equal(t, 0, id.Index())
	assert.Equal(t, 1, age.Index())
	assert.Equal(t, 2, name.Index())
	assert.Equal(t, 3, breed.Index())
	assert.Equal(t, 3, breed.ShadowIndex())

	name.SetIsShadowProperty(false)
	assert.Equal(t, -1, name.ShadowIndex())
	assert.Equal(t, 2, breed.ShadowIndex())
	assert.Equal(t, 3, dog.ShadowPropertyCount())

	require.NoError(t, animal.RemoveProperty(age))
	assert.Equal(t, -1, age.Index())
	assert.Equal(t, 2, breed.Index())

	baseCount := animal.PropertyCount()
	seen := map[int]bool{}
	for _, p := range dog.Properties() {
		require.GreaterOrEqual(t, p.Index(), 0)
		require.Less(t, p.Index(), dog.PropertyCount())
		require.False(t, seen[p.Index()], "duplicate index %d", p.Index())
		seen[p.Index()] = true
		if p.Index() >= baseCount {
			assert.Same(t, dog, p.DeclaringEntityType())
		}
	}
}

func TestOriginalValueIndexes(t *testing.T) {
	m := NewModel()
	order := mustEntity(t, m, "Order")
	line := mustEntity(t, m, "OrderLine")

	orderID := mustProperty(t, order, "Id", intType)
	version := mustProperty(t, order, "Version", intType)
	pk, err := order.SetPrimaryKey(orderID)
	require.NoError(t, err)

	assert.Equal(t, -1, version.OriginalValueIndex())
	version.SetIsConcurrencyToken(true)
	assert.Equal(t, 0, version.OriginalValueIndex())
	assert.Equal(t, -1, orderID.OriginalValueIndex())
	assert.Equal(t, 1, order.OriginalValueCount())

	lineID := mustProperty(t, line, "Id", intType)
	lineOrder := mustProperty(t, line, "OrderId", intType)
	_, err = line.SetPrimaryKey(lineID)
	require.NoError(t, err)
	assert.Equal(t, -1, lineOrder.OriginalValueIndex())

	fk, err := line.AddForeignKey([]*Property{lineOrder}, pk, order)
	require.NoError(t, err)
	assert.Equal(t, 0, lineOrder.OriginalValueIndex())
	assert.True(t, lineOrder.IsForeignKey())

	require.NoError(t, line.RemoveForeignKey(fk))
	assert.Equal(t, -1, lineOrder.OriginalValueIndex())

	version.ClearIsConcurrencyToken()
	assert.Equal(t, 0, order.OriginalValueCount())
}

func TestSetBaseTypeValidation(t *testing.T) {
	t.Run("circular inheritance", func(t *testing.T) {
		m := NewModel()
		a := mustEntity(t, m, "A")
		b := mustEntity(t, m, "B")
		c := mustEntity(t, m, "C")
		require.NoError(t, b.SetBaseType(a))
		require.NoError(t, c.SetBaseType(b))

		err := a.SetBaseType(c)
		require.ErrorIs(t, err, ErrCircularInheritance)
		assert.Nil(t, a.BaseType())

		require.ErrorIs(t, a.SetBaseType(a), ErrCircularInheritance)
	})

	t.Run("type with keys cannot derive", func(t *testing.T) {
		m := NewModel()
		base := mustEntity(t, m, "Base")
		derived := mustEntity(t, m, "Derived")
		id := mustProperty(t, derived, "Id", intType)
		_, err := derived.AddKey(id)
		require.NoError(t, err)

		require.ErrorIs(t, derived.SetBaseType(base), ErrDerivedEntityCannotHaveKeys)
	})

	t.Run("derived type cannot declare keys", func(t *testing.T) {
		m := NewModel()
		base := mustEntity(t, m, "Base")
		derived := mustEntity(t, m, "Derived")
		require.NoError(t, derived.SetBaseType(base))
		p := mustProperty(t, derived, "Code", stringType)

		_, err := derived.AddKey(p)
		require.ErrorIs(t, err, ErrDerivedEntityCannotHaveKeys)
		_, err = derived.SetPrimaryKey(p)
		require.ErrorIs(t, err, ErrDerivedEntityCannotHaveKeys)
	})

	t.Run("property collision with base", func(t *testing.T) {
		m := NewModel()
		base := mustEntity(t, m, "Base")
		derived := mustEntity(t, m, "Derived")
		mustProperty(t, base, "Name", stringType)
		mustProperty(t, derived, "Name", stringType)

		require.ErrorIs(t, derived.SetBaseType(base), ErrDuplicateProperty)
	})

	t.Run("property collision with derived", func(t *testing.T) {
		m := NewModel()
		base := mustEntity(t, m, "Base")
		derived := mustEntity(t, m, "Derived")
		require.NoError(t, derived.SetBaseType(base))
		mustProperty(t, derived, "Name", stringType)

		_, err := base.AddProperty("Name", stringType)
		require.ErrorIs(t, err, ErrDuplicateProperty)
		assert.Nil(t, base.FindDeclaredProperty("Name"))
	})

	t.Run("different models", func(t *testing.T) {
		a := mustEntity(t, NewModel(), "A")
		b := mustEntity(t, NewModel(), "B")
		require.ErrorIs(t, a.SetBaseType(b), ErrEntityTypeModelMismatch)
	})

	t.Run("detach", func(t *testing.T) {
		m := NewModel()
		base := mustEntity(t, m, "Base")
		derived := mustEntity(t, m, "Derived")
		mustProperty(t, base, "Id", intType)
		own := mustProperty(t, derived, "Own", intType)
		require.NoError(t, derived.SetBaseType(base))
		assert.Equal(t, 1, own.Index())

		require.NoError(t, derived.SetBaseType(nil))
		assert.Equal(t, 0, own.Index())
		assert.Empty(t, base.DerivedTypes())
	})
}

func TestPrimaryKey(t *testing.T) {
	m := NewModel()
	e := mustEntity(t, m, "Blog")
	id := mustProperty(t, e, "Id", intType)

	key, err := e.SetPrimaryKey(id)
	require.NoError(t, err)
	assert.Same(t, key, e.FindPrimaryKey())
	assert.True(t, key.IsPrimaryKey())

	_, err = e.SetPrimaryKey()
	require.NoError(t, err)
	assert.Nil(t, e.FindPrimaryKey())
	assert.Same(t, key, e.FindKey(id))

	_, err = e.AddKey(id)
	require.ErrorIs(t, err, ErrDuplicateKey)

	other := mustEntity(t, m, "Post")
	foreign := mustProperty(t, other, "Id", intType)
	_, err = e.AddKey(foreign)
	require.ErrorIs(t, err, ErrKeyPropertiesWrongEntity)
}

func TestKeyLookupIgnoresPropertyOrder(t *testing.T) {
	m := NewModel()
	e := mustEntity(t, m, "Pair")
	a := mustProperty(t, e, "A", intType)
	b := mustProperty(t, e, "B", intType)

	key, err := e.AddKey(a, b)
	require.NoError(t, err)
	assert.Same(t, key, e.FindKey(b, a))

	got, err := e.GetOrAddKey(b, a)
	require.NoError(t, err)
	assert.Same(t, key, got)
	assert.Len(t, e.Keys(), 1)
}

func TestRemoveInUse(t *testing.T) {
	m := NewModel()
	blog := mustEntity(t, m, "Blog")
	post := mustEntity(t, m, "Post")

	blogID := mustProperty(t, blog, "Id", intType)
	pk, err := blog.SetPrimaryKey(blogID)
	require.NoError(t, err)

	postID := mustProperty(t, post, "Id", intType)
	postBlogID := mustProperty(t, post, "BlogId", intType)
	title := mustProperty(t, post, "Title", stringType)
	_, err = post.SetPrimaryKey(postID)
	require.NoError(t, err)

	fk, err := post.AddForeignKey([]*Property{postBlogID}, pk, blog)
	require.NoError(t, err)
	_, err = post.AddIndex(title)
	require.NoError(t, err)

	t.Run("key referenced by foreign key", func(t *testing.T) {
		err := blog.RemoveKey(pk)
		require.ErrorIs(t, err, ErrKeyInUse)
		assert.Contains(t, err.Error(), "Post")
		assert.Same(t, pk, blog.FindPrimaryKey())
	})

	t.Run("property in key", func(t *testing.T) {
		require.ErrorIs(t, blog.RemoveProperty(blogID), ErrPropertyInUse)
		assert.Same(t, blogID, blog.FindProperty("Id"))
	})

	t.Run("property in foreign key", func(t *testing.T) {
		require.ErrorIs(t, post.RemoveProperty(postBlogID), ErrPropertyInUse)
		assert.Same(t, postBlogID, post.FindProperty("BlogId"))
	})

	t.Run("property in index", func(t *testing.T) {
		require.ErrorIs(t, post.RemoveProperty(title), ErrPropertyInUse)
		assert.Equal(t, 3, post.PropertyCount())
	})

	t.Run("foreign key used by navigation", func(t *testing.T) {
		nav, err := post.AddNavigation("Blog", fk, true)
		require.NoError(t, err)

		err = post.RemoveForeignKey(fk)
		require.ErrorIs(t, err, ErrForeignKeyInUse)
		assert.Contains(t, err.Error(), "'Blog'")
		assert.Contains(t, err.Error(), "'Post'")

		require.NoError(t, post.RemoveNavigation(nav))
		require.NoError(t, post.RemoveForeignKey(fk))
		require.NoError(t, blog.RemoveKey(pk))
		assert.Nil(t, blog.FindPrimaryKey())
	})
}

func TestAddForeignKeyValidation(t *testing.T) {
	m := NewModel()
	blog := mustEntity(t, m, "Blog")
	post := mustEntity(t, m, "Post")
	blogID := mustProperty(t, blog, "Id", intType)
	pk, err := blog.SetPrimaryKey(blogID)
	require.NoError(t, err)
	blogIDOnPost := mustProperty(t, post, "BlogId", intType)
	extra := mustProperty(t, post, "Extra", intType)

	t.Run("other model", func(t *testing.T) {
		other := mustEntity(t, NewModel(), "Foreign")
		p := mustProperty(t, other, "BlogId", intType)
		_, err := other.AddForeignKey([]*Property{p}, pk, blog)
		require.ErrorIs(t, err, ErrEntityTypeModelMismatch)
	})

	t.Run("count mismatch", func(t *testing.T) {
		_, err := post.AddForeignKey([]*Property{blogIDOnPost, extra}, pk, blog)
		require.Error(t, err)
	})

	t.Run("wrong entity", func(t *testing.T) {
		_, err := post.AddForeignKey([]*Property{blogID}, pk, blog)
		require.ErrorIs(t, err, ErrForeignKeyPropertiesWrong)
	})

	t.Run("duplicate", func(t *testing.T) {
		fk, err := post.AddForeignKey([]*Property{blogIDOnPost}, pk, nil)
		require.NoError(t, err)
		assert.Same(t, blog, fk.PrincipalEntityType())

		_, err = post.AddForeignKey([]*Property{blogIDOnPost}, pk, blog)
		require.ErrorIs(t, err, ErrDuplicateForeignKey)

		got, err := post.GetOrAddForeignKey([]*Property{blogIDOnPost}, pk, blog)
		require.NoError(t, err)
		assert.Same(t, fk, got)
		assert.Equal(t, []*ForeignKey{fk}, blog.ReferencingForeignKeys())
	})
}

func TestNavigations(t *testing.T) {
	m := NewModel()
	blog := mustEntity(t, m, "Blog")
	post := mustEntity(t, m, "Post")
	blogID := mustProperty(t, blog, "Id", intType)
	pk, err := blog.SetPrimaryKey(blogID)
	require.NoError(t, err)
	postBlogID := mustProperty(t, post, "BlogId", intType)
	fk, err := post.AddForeignKey([]*Property{postBlogID}, pk, blog)
	require.NoError(t, err)

	toBlog, err := post.AddNavigation("Blog", fk, true)
	require.NoError(t, err)
	posts, err := blog.AddNavigation("Posts", fk, false)
	require.NoError(t, err)

	assert.Same(t, toBlog, fk.DependentToPrincipal())
	assert.Same(t, posts, fk.PrincipalToDependent())
	assert.False(t, toBlog.IsCollection())
	assert.True(t, posts.IsCollection())
	assert.Same(t, post, posts.TargetType())

	fk.SetIsUnique(true)
	assert.False(t, posts.IsCollection())

	_, err = blog.AddNavigation("Posts", fk, false)
	require.ErrorIs(t, err, ErrDuplicateNavigation)

	_, err = blog.AddNavigation("Id", fk, false)
	require.ErrorIs(t, err, ErrConflictingProperty)

	_, err = blog.AddNavigation("Other", fk, true)
	require.ErrorIs(t, err, ErrNavigationForWrongForeignKey)

	_, err = post.AddProperty("Blog", intType)
	require.ErrorIs(t, err, ErrConflictingNavigation)

	names := []string{}
	mustNav := func(name string) {
		other := mustProperty(t, post, name+"Id", intType)
		otherFK, err := post.AddForeignKey([]*Property{other}, pk, blog)
		require.NoError(t, err)
		_, err = blog.AddNavigation(name, otherFK, false)
		require.NoError(t, err)
	}
	mustNav("Archived")
	mustNav("Drafts")
	for _, n := range blog.Navigations() {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"Archived", "Drafts", "Posts"}, names)
}

func TestForeignKeysAndIndexesAreOrdered(t *testing.T) {
	m := NewModel()
	e := mustEntity(t, m, "Item")
	a := mustProperty(t, e, "A", intType)
	b := mustProperty(t, e, "B", intType)
	c := mustProperty(t, e, "C", intType)

	ab, err := e.AddIndex(b, a)
	require.NoError(t, err)
	cIdx, err := e.AddIndex(c)
	require.NoError(t, err)
	aIdx, err := e.AddIndex(a)
	require.NoError(t, err)

	assert.Equal(t, []*Index{aIdx, cIdx, ab}, e.Indexes())

	_, err = e.AddIndex(a, b)
	require.ErrorIs(t, err, ErrDuplicateIndex)

	require.NoError(t, e.RemoveIndex(cIdx))
	assert.Equal(t, []*Index{aIdx, ab}, e.Indexes())
}

func TestModelEntityTypes(t *testing.T) {
	m := NewModel()
	mustEntity(t, m, "Zeta")
	alpha := mustEntity(t, m, "Alpha")

	_, err := m.AddEntityType("Alpha")
	require.Error(t, err)

	got, err := m.GetOrAddEntityType("Alpha")
	require.NoError(t, err)
	assert.Same(t, alpha, got)

	names := []string{}
	for _, e := range m.EntityTypes() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"Alpha", "Zeta"}, names)

	require.NoError(t, m.RemoveEntityType(alpha))
	assert.Nil(t, m.FindEntityType("Alpha"))
}

func TestRemoveEntityTypeInUse(t *testing.T) {
	m := NewModel()
	blog := mustEntity(t, m, "Blog")
	post := mustEntity(t, m, "Post")
	pk, err := blog.SetPrimaryKey(mustProperty(t, blog, "Id", intType))
	require.NoError(t, err)
	_, err = post.AddForeignKey([]*Property{mustProperty(t, post, "BlogId", intType)}, pk, blog)
	require.NoError(t, err)

	require.Error(t, m.RemoveEntityType(blog))

	special := mustEntity(t, m, "SpecialPost")
	require.NoError(t, special.SetBaseType(post))
	require.Error(t, m.RemoveEntityType(post))
}
