package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasgraph/oasgraph/oaserrors"
)

func petstoreValue() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": "Petstore", "version": "1.0.0"},
		"paths": map[string]any{
			"/pets": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{
							"name":   "limit",
							"in":     "query",
							"schema": map[string]any{"type": "integer"},
						},
					},
					"responses": map[string]any{
						"200": map[string]any{
							"description": "ok",
							"content": map[string]any{
								"application/json": map[string]any{
									"schema": map[string]any{
										"$ref": "#/components/schemas/Pets",
									},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Pet": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":   map[string]any{"type": "integer"},
						"name": map[string]any{"type": "string"},
					},
					"required": []any{"id", "name"},
				},
				"Pets": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/components/schemas/Pet"},
				},
			},
		},
	}
}

func newPetstore(t *testing.T) *Node {
	t.Helper()
	root, err := NewRoot(petstoreValue(),
		"https://example.com/api/petstore",
		"file:///specs/petstore.yaml")
	require.NoError(t, err)
	return root
}

// TestNewRoot tests version detection and dialect selection
func TestNewRoot(t *testing.T) {
	t.Run("detects the 3.0 partition", func(t *testing.T) {
		root := newPetstore(t)
		assert.Equal(t, "3.0", root.Partition())
		assert.Equal(t, Dialect30, root.Dialect())
	})

	t.Run("3.1 honors jsonSchemaDialect", func(t *testing.T) {
		root, err := NewRoot(map[string]any{
			"openapi":           "3.1.0",
			"jsonSchemaDialect": "https://example.com/dialect",
		}, "https://example.com/api/d", "file:///d.yaml")
		require.NoError(t, err)
		assert.Equal(t, "3.1", root.Partition())
		assert.Equal(t, "https://example.com/dialect", root.Dialect())
	})

	t.Run("3.1 defaults its dialect", func(t *testing.T) {
		root, err := NewRoot(map[string]any{"openapi": "3.1.2"},
			"https://example.com/api/d", "file:///d.yaml")
		require.NoError(t, err)
		assert.Equal(t, Dialect31, root.Dialect())
	})

	t.Run("unsupported series fails", func(t *testing.T) {
		_, err := NewRoot(map[string]any{"openapi": "2.0"},
			"https://example.com/api/old", "file:///old.yaml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrVersion))
	})

	t.Run("explicit partition conflicting with the document fails", func(t *testing.T) {
		_, err := NewRoot(map[string]any{"openapi": "3.0.3"},
			"https://example.com/api/x", "file:///x.yaml",
			WithPartition("3.1"))
		require.Error(t, err)
		var verErr *oaserrors.VersionError
		require.True(t, errors.As(err, &verErr))
		assert.Equal(t, "3.0.3", verErr.Declared)
		assert.Equal(t, "3.1", verErr.Expected)
	})

	t.Run("no version field and no override fails", func(t *testing.T) {
		_, err := NewRoot(map[string]any{"type": "object"},
			"https://example.com/api/pet", "file:///pet.yaml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrVersion))
	})

	t.Run("standalone schema with explicit partition and kind", func(t *testing.T) {
		root, err := NewRoot(map[string]any{"type": "object"},
			"https://example.com/api/pet", "file:///pet.yaml",
			WithPartition("3.1"), WithKind(KindSchema))
		require.NoError(t, err)
		assert.Equal(t, KindSchema, root.Kind)
	})
}

// TestChildDerivation tests URI/URL appension and memoization
func TestChildDerivation(t *testing.T) {
	root := newPetstore(t)

	t.Run("child URIs and URLs extend by escaped pointer tokens", func(t *testing.T) {
		paths, err := root.Child("paths")
		require.NoError(t, err)
		pets, err := paths.Child("/pets")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/api/petstore#/paths/~1pets", pets.URI)
		assert.Equal(t, "file:///specs/petstore.yaml#/paths/~1pets", pets.URL)
		assert.Equal(t, "/paths/~1pets", pets.Pointer())
	})

	t.Run("children are memoized", func(t *testing.T) {
		a, err := root.Child("info")
		require.NoError(t, err)
		b, err := root.Child("info")
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("array children use index keys", func(t *testing.T) {
		param, err := root.Resolve("/paths/~1pets/get/parameters/0")
		require.NoError(t, err)
		assert.Equal(t, "0", param.Key)
		assert.True(t, param.IsObject())
	})

	t.Run("array indexes with leading zeros are rejected", func(t *testing.T) {
		params, err := root.Resolve("/paths/~1pets/get/parameters")
		require.NoError(t, err)
		_, err = params.Child("00")
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrCatalog))
	})

	t.Run("missing key fails", func(t *testing.T) {
		_, err := root.Child("absent")
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrCatalog))
	})

	t.Run("version and sourcemap shared from the root", func(t *testing.T) {
		info, err := root.Child("info")
		require.NoError(t, err)
		assert.Equal(t, "3.0", info.Partition())
		assert.Same(t, root, info.Root())
	})
}

// TestSchemaClassification tests structural schema slot recognition
func TestSchemaClassification(t *testing.T) {
	root := newPetstore(t)

	t.Run("components schemas entries are schemas", func(t *testing.T) {
		pet, err := root.Resolve("/components/schemas/Pet")
		require.NoError(t, err)
		assert.Equal(t, KindSchema, pet.Kind)
	})

	t.Run("media type schema slots are schemas", func(t *testing.T) {
		n, err := root.Resolve("/paths/~1pets/get/responses/200/content/application~1json/schema")
		require.NoError(t, err)
		assert.Equal(t, KindSchema, n.Kind)
	})

	t.Run("parameter schema slots are schemas", func(t *testing.T) {
		n, err := root.Resolve("/paths/~1pets/get/parameters/0/schema")
		require.NoError(t, err)
		assert.Equal(t, KindSchema, n.Kind)
	})

	t.Run("subschema positions inherit schema kind", func(t *testing.T) {
		idSchema, err := root.Resolve("/components/schemas/Pet/properties/id")
		require.NoError(t, err)
		assert.Equal(t, KindSchema, idSchema.Kind)

		items, err := root.Resolve("/components/schemas/Pets/items")
		require.NoError(t, err)
		assert.Equal(t, KindSchema, items.Kind)
	})

	t.Run("keyword containers and plain positions stay generic", func(t *testing.T) {
		props, err := root.Resolve("/components/schemas/Pet/properties")
		require.NoError(t, err)
		assert.Equal(t, KindGeneric, props.Kind)

		required, err := root.Resolve("/components/schemas/Pet/required")
		require.NoError(t, err)
		assert.Equal(t, KindGeneric, required.Kind)

		info, err := root.Child("info")
		require.NoError(t, err)
		assert.Equal(t, KindGeneric, info.Kind)
	})
}

// TestConvertToSchema tests reactive reclassification
func TestConvertToSchema(t *testing.T) {
	t.Run("reclassifies a generic node in place", func(t *testing.T) {
		root, err := NewRoot(map[string]any{
			"openapi": "3.0.3",
			"x-shared": map[string]any{
				"Address": map[string]any{"type": "object"},
			},
		}, "https://example.com/api/x", "file:///x.yaml")
		require.NoError(t, err)

		shared, err := root.Child("x-shared")
		require.NoError(t, err)
		before, err := shared.Child("Address")
		require.NoError(t, err)
		assert.Equal(t, KindGeneric, before.Kind)

		converted, err := shared.ConvertToSchema("Address")
		require.NoError(t, err)
		assert.Equal(t, KindSchema, converted.Kind)

		again, err := shared.Child("Address")
		require.NoError(t, err)
		assert.Same(t, converted, again)
	})

	t.Run("conversion is idempotent", func(t *testing.T) {
		root := newPetstore(t)
		components, err := root.Child("components")
		require.NoError(t, err)
		schemas, err := components.Child("schemas")
		require.NoError(t, err)

		first, err := schemas.ConvertToSchema("Pet")
		require.NoError(t, err)
		second, err := schemas.ConvertToSchema("Pet")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("sibling identity is preserved", func(t *testing.T) {
		root := newPetstore(t)
		schemas, err := root.Resolve("/components/schemas")
		require.NoError(t, err)
		pets, err := schemas.Child("Pets")
		require.NoError(t, err)

		_, err = schemas.ConvertToSchema("Pet")
		require.NoError(t, err)

		petsAgain, err := schemas.Child("Pets")
		require.NoError(t, err)
		assert.Same(t, pets, petsAgain)
	})

	t.Run("conversion resolves internal references eagerly", func(t *testing.T) {
		root, err := NewRoot(map[string]any{
			"openapi": "3.0.3",
			"x-root": map[string]any{
				"List": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/x-root/Entry"},
				},
				"Entry": map[string]any{"type": "object"},
			},
		}, "https://example.com/api/x", "file:///x.yaml")
		require.NoError(t, err)

		xroot, err := root.Child("x-root")
		require.NoError(t, err)
		_, err = xroot.ConvertToSchema("List")
		require.NoError(t, err)

		entry, err := xroot.Child("Entry")
		require.NoError(t, err)
		assert.Equal(t, KindSchema, entry.Kind)
	})

	t.Run("cyclic references terminate", func(t *testing.T) {
		root, err := NewRoot(map[string]any{
			"openapi": "3.1.0",
			"x-root": map[string]any{
				"A": map[string]any{
					"properties": map[string]any{"b": map[string]any{"$ref": "#/x-root/B"}},
				},
				"B": map[string]any{
					"properties": map[string]any{"a": map[string]any{"$ref": "#/x-root/A"}},
				},
			},
		}, "https://example.com/api/x", "file:///x.yaml")
		require.NoError(t, err)

		xroot, err := root.Child("x-root")
		require.NoError(t, err)
		a, err := xroot.ConvertToSchema("A")
		require.NoError(t, err)
		assert.Equal(t, KindSchema, a.Kind)

		b, err := xroot.Child("B")
		require.NoError(t, err)
		assert.Equal(t, KindSchema, b.Kind)
	})

	t.Run("dangling internal reference fails", func(t *testing.T) {
		root, err := NewRoot(map[string]any{
			"openapi": "3.0.3",
			"x-root": map[string]any{
				"Bad": map[string]any{"$ref": "#/x-root/Absent"},
			},
		}, "https://example.com/api/x", "file:///x.yaml")
		require.NoError(t, err)

		xroot, err := root.Child("x-root")
		require.NoError(t, err)
		_, err = xroot.ConvertToSchema("Bad")
		require.Error(t, err)
	})

	t.Run("converting a scalar slot fails", func(t *testing.T) {
		root := newPetstore(t)
		info, err := root.Child("info")
		require.NoError(t, err)
		_, err = info.Child("title")
		require.NoError(t, err)
		title, err := info.ConvertToSchema("title")
		// A scalar can still be wrapped; validating against it is what fails.
		require.NoError(t, err)
		err = title.ValidateInstance(map[string]any{})
		require.Error(t, err)
	})
}

// TestValidateInstance tests instance validation against schema nodes
func TestValidateInstance(t *testing.T) {
	root := newPetstore(t)

	t.Run("valid instance passes", func(t *testing.T) {
		pet, err := root.Resolve("/components/schemas/Pet")
		require.NoError(t, err)
		err = pet.ValidateInstance(map[string]any{"id": 1, "name": "rex"})
		require.NoError(t, err)
	})

	t.Run("invalid instance fails with a validation error", func(t *testing.T) {
		pet, err := root.Resolve("/components/schemas/Pet")
		require.NoError(t, err)
		err = pet.ValidateInstance(map[string]any{"id": "not-a-number"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrValidation))
	})

	t.Run("generic node fails with NotASchemaError", func(t *testing.T) {
		info, err := root.Child("info")
		require.NoError(t, err)
		err = info.ValidateInstance(map[string]any{})
		require.Error(t, err)
		var nse *oaserrors.NotASchemaError
		require.True(t, errors.As(err, &nse))
		assert.Contains(t, nse.URI, "#/info")
		assert.Contains(t, nse.Message, "file:///specs/petstore.yaml")
	})
}
