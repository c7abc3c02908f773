package templates

import (
	"context"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/oas2client/internal/resolve"
)

func sampleSource() *resolve.Source {
	petRef := &resolve.TypeRef{Kind: resolve.KindRef, Name: "Pet"}
	return &resolve.Source{
		Name:    "petstore",
		Package: "petstore",
		Title:   "Petstore",
		Version: "1.0",
		BaseURL: "https://api.example.com/v1",
		Types: []resolve.Type{
			{Name: "Pet", Kind: resolve.TypeStruct, Description: "A pet.", Fields: []resolve.Field{
				{Name: "id", Ident: "Id", Required: true, Type: resolve.TypeRef{Kind: resolve.KindInteger, Format: "int64"}},
				{Name: "status", Ident: "Status", Type: resolve.TypeRef{Kind: resolve.KindRef, Name: "Status"}},
				{Name: "tags", Ident: "Tags", Type: resolve.TypeRef{Kind: resolve.KindArray, Items: &resolve.TypeRef{Kind: resolve.KindString}}},
			}},
			{Name: "Pets", Kind: resolve.TypeAlias, Alias: &resolve.TypeRef{Kind: resolve.KindArray, Items: petRef}},
			{Name: "Status", Kind: resolve.TypeEnum, Values: []string{"available", "sold"}},
		},
		Modules: []resolve.Module{{
			Name:        "pet",
			Identifier:  "pet",
			TypeName:    "Pet",
			Tag:         "pet",
			Description: "Everything about your pets",
			SamePath:    "/",
			Interfaces: []resolve.Interface{
				{
					Name: "addPet", Method: "POST", Path: "/pet",
					Deprecated: true, Body: petRef, BodyRequired: true,
				},
				{Name: "getOrder-items", Method: "GET", Path: "/pet/order-items"},
				{
					Name: "getPetByPetId", Method: "GET", Path: "/pet/{petId}", Summary: "Find pet by ID.",
					PathParams: []resolve.Param{{Name: "petId", Ident: "petId", In: "path", Required: true, Type: resolve.TypeRef{Kind: resolve.KindInteger, Format: "int64"}}},
					Response:   petRef,
				},
				{
					Name: "listPets", Method: "GET", Path: "/pet",
					QueryParams: []resolve.Param{
						{Name: "page_size", Ident: "pageSize", In: "query", Type: resolve.TypeRef{Kind: resolve.KindInteger, Format: "int32"}},
						{Name: "type", Ident: "type", In: "query", Type: resolve.TypeRef{Kind: resolve.KindString}},
					},
					HeaderParams: []resolve.Param{{Name: "X-Trace", Ident: "xTrace", In: "header", Type: resolve.TypeRef{Kind: resolve.KindString}}},
					Response:     &resolve.TypeRef{Kind: resolve.KindRef, Name: "Pets"},
				},
			},
		}},
	}
}

func generate(t *testing.T, variant string) map[string]File {
	t.Helper()
	gen, ok := Builtin().Lookup(variant)
	require.True(t, ok)
	files, err := gen.Generate(context.Background(), sampleSource())
	require.NoError(t, err)
	out := make(map[string]File, len(files))
	for _, f := range files {
		out[f.Path] = f
	}
	return out
}

func TestBuiltinGo(t *testing.T) {
	files := generate(t, VariantGo)
	require.Len(t, files, 3)
	for _, name := range []string{"types.go", "pet.go", "client.go"} {
		f, ok := files[name]
		require.True(t, ok, name)
		assert.Equal(t, "go", f.Lang)
		_, err := parser.ParseFile(token.NewFileSet(), name, f.Content, parser.AllErrors)
		require.NoError(t, err, "%s:\n%s", name, f.Content)
		assert.Contains(t, string(f.Content), "package petstore\n")
	}

	types := string(files["types.go"].Content)
	assert.Contains(t, types, "// A pet.\ntype Pet struct {")
	assert.Contains(t, types, "Id int64 `json:\"id\"`")
	assert.Contains(t, types, "Status *Status `json:\"status,omitempty\"`")
	assert.Contains(t, types, "Tags []string `json:\"tags,omitempty\"`")
	assert.Contains(t, types, "type Pets = []Pet")
	assert.Contains(t, types, `StatusAvailable Status = "available"`)

	pet := string(files["pet.go"].Content)
	assert.Contains(t, pet, "// PetService calls the Everything about your pets operations.")
	assert.Contains(t, pet, "func (s *PetService) GetPetByPetId(ctx context.Context, petId int64) (Pet, error)")
	assert.Contains(t, pet, `"/pet/" + pathParam(petId)`)
	assert.Contains(t, pet, "func (s *PetService) ListPets(ctx context.Context, pageSize int32, type_ string, xTrace string) (Pets, error)")
	assert.Contains(t, pet, `"page_size": pageSize,`)
	assert.Contains(t, pet, `"X-Trace": xTrace,`)
	assert.Contains(t, pet, "// Deprecated:")
	assert.Contains(t, pet, "func (s *PetService) AddPet(ctx context.Context, body Pet) (struct{}, error)")
	assert.Contains(t, pet, `s.client.do(ctx, "POST", "/pet", q, h, body, nil)`)
	assert.Contains(t, pet, "func (s *PetService) GetOrderItems(ctx context.Context) (struct{}, error)")

	client := string(files["client.go"].Content)
	assert.Contains(t, client, `const DefaultBaseURL = "https://api.example.com/v1"`)
	assert.Contains(t, client, "// Client calls the Petstore API (version 1.0).")
	assert.Contains(t, client, "Pet *PetService")
	assert.Contains(t, client, "c.Pet = &PetService{client: c}")
}

func TestBuiltinTypeScript(t *testing.T) {
	files := generate(t, VariantTypeScript)
	require.Len(t, files, 3)
	for _, name := range []string{"types.ts", "pet.ts", "index.ts"} {
		f, ok := files[name]
		require.True(t, ok, name)
		assert.Equal(t, "typescript", f.Lang)
	}

	types := string(files["types.ts"].Content)
	assert.Contains(t, types, "export interface Pet {")
	assert.Contains(t, types, "  id: number;")
	assert.Contains(t, types, "  status?: Status;")
	assert.Contains(t, types, `export type Status = "available" | "sold";`)
	assert.Contains(t, types, "export type Pets = Pet[];")

	pet := string(files["pet.ts"].Content)
	assert.Contains(t, pet, "export class PetService {")
	assert.Contains(t, pet, "getPetByPetId(petId: number): Promise<T.Pet> {")
	assert.Contains(t, pet, "`/pet/${encodeURIComponent(String(petId))}`")
	assert.Contains(t, pet, "listPets(params: { pageSize?: number; type?: string; xTrace?: string } = {}): Promise<T.Pets> {")
	assert.Contains(t, pet, `"page_size": params.pageSize,`)
	assert.Contains(t, pet, `"X-Trace": params.xTrace,`)
	assert.Contains(t, pet, "addPet(body: T.Pet): Promise<void> {")
	assert.Contains(t, pet, "@deprecated")
	assert.Contains(t, pet, "getOrderItems(): Promise<void> {")
	assert.NotContains(t, pet, "getOrder-items(")

	index := string(files["index.ts"].Content)
	assert.Contains(t, index, `import { PetService } from "./pet";`)
	assert.Contains(t, index, "readonly pet: PetService;")
	assert.Contains(t, index, "this.pet = new PetService(this);")
}

func TestBuiltinIsDeterministic(t *testing.T) {
	a := generate(t, VariantGo)
	b := generate(t, VariantGo)
	assert.Equal(t, a, b)
}

func TestGenerate_NilSource(t *testing.T) {
	gen, _ := Builtin().Lookup(VariantGo)
	_, err := gen.Generate(context.Background(), nil)
	var te *Error
	require.ErrorAs(t, err, &te)
}

func TestGenerate_CancelledContext(t *testing.T) {
	gen, _ := Builtin().Lookup(VariantGo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gen.Generate(ctx, sampleSource())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	reg := Builtin()
	assert.Equal(t, []string{VariantGo, VariantTypeScript}, reg.Names())

	called := false
	reg.Register("noop", GeneratorFunc(func(context.Context, *resolve.Source) ([]File, error) {
		called = true
		return nil, nil
	}))
	gen, ok := reg.Lookup("noop")
	require.True(t, ok)
	_, err := gen.Generate(context.Background(), sampleSource())
	require.NoError(t, err)
	assert.True(t, called)

	_, ok = reg.Lookup("cobol")
	assert.False(t, ok)
}

func TestBuiltinSource(t *testing.T) {
	src, ok := BuiltinSource(VariantGo)
	require.True(t, ok)
	assert.Contains(t, string(src), `{{define "module"`)

	_, ok = BuiltinSource("cobol")
	assert.False(t, ok)
}
