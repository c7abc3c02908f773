package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cli "github.com/mark3labs/oas2client/internal/cli"
)

// Swagger 2.0 description with tags, an untagged operation, a reserved
// operation id and a model hierarchy.
const petstoreV2 = `swagger: 2.0
info:
  title: E2E Petstore
  version: 1.0.0
host: petstore.example.com
basePath: /api
schemes: [https]
tags:
  - name: pet-controller
    description: Pet Store Controller
  - name: store
    description: 商店
paths:
  /pets:
    get:
      tags: [pet-controller]
      operationId: listPetsUsingGET
      summary: List pets
      parameters:
        - name: page_size
          in: query
          type: integer
          format: int32
        - name: status
          in: query
          type: array
          items:
            type: string
      responses:
        "200":
          description: ok
          schema:
            type: array
            items:
              $ref: "#/definitions/Pet"
    post:
      tags: [pet-controller]
      operationId: addPetUsingPOST
      parameters:
        - name: body
          in: body
          required: true
          schema:
            $ref: "#/definitions/NewPet"
      responses:
        "201":
          description: created
          schema:
            $ref: "#/definitions/Pet"
  /pets/{petId}:
    delete:
      tags: [pet-controller]
      operationId: deleteUsingDELETE
      parameters:
        - name: petId
          in: path
          required: true
          type: integer
          format: int64
        - name: X-Request-Id
          in: header
          type: string
      responses:
        "204":
          description: deleted
  /store/orders/{orderId}:
    get:
      tags: [store]
      operationId: getOrderUsingGET
      parameters:
        - name: orderId
          in: path
          required: true
          type: string
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/Order"
  /health:
    get:
      responses:
        "200":
          description: ok
definitions:
  NewPet:
    type: object
    required: [name]
    properties:
      name:
        type: string
      tag:
        type: string
  Pet:
    allOf:
      - $ref: "#/definitions/NewPet"
      - type: object
        required: [id]
        properties:
          id:
            type: integer
            format: int64
  OrderStatus:
    type: string
    enum: [placed, approved, delivered]
  Order:
    type: object
    properties:
      id:
        type: string
      status:
        $ref: "#/definitions/OrderStatus"
      pets:
        type: array
        items:
          $ref: "#/definitions/Pet"
`

func writeProject(t *testing.T, configJSON string) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "petstore.yaml"), []byte(petstoreV2), 0o600))
	configPath = filepath.Join(dir, "oas2client-config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(configJSON), 0o600))
	return dir, configPath
}

func runCLI(t *testing.T, args ...string) {
	t.Helper()
	root := cli.NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), "cli execute %v", args)
}

func digestDir(t *testing.T, dir string) (files []string, sum string) {
	t.Helper()
	var list []string
	h := sha256.New()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		list = append(list, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err, "walk %s", dir)
	sort.Strings(list)
	for _, rel := range list {
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		require.NoError(t, err)
		_, _ = h.Write([]byte(rel))
		_, _ = h.Write(b)
	}
	return list, hex.EncodeToString(h.Sum(nil))
}

func TestE2E_Go_DeterministicAcrossRuns(t *testing.T) {
	t.Parallel()
	dir, configPath := writeProject(t, `{"originUrl": "petstore.yaml", "outDir": "petstore", "usingOperationId": true}`)
	out := filepath.Join(dir, "petstore")

	runCLI(t, "-c", configPath, "generate")
	files1, sum1 := digestDir(t, out)
	runCLI(t, "-c", configPath, "generate", "--force")
	files2, sum2 := digestDir(t, out)

	require.Equal(t, files1, files2)
	require.Equal(t, sum1, sum2, "generated outputs differ between runs")
	assert.Equal(t, []string{
		".oas2client-manifest",
		"client.go",
		"health.go",
		"pet.go",
		"store.go",
		"types.go",
	}, files1)

	pet := readFile(t, filepath.Join(out, "pet.go"))
	assert.Contains(t, pet, "type PetService struct")
	assert.Contains(t, pet, "func (s *PetService) ListPets(ctx context.Context, pageSize int32, status []string) ([]Pet, error)")
	assert.Contains(t, pet, "func (s *PetService) AddPet(ctx context.Context, body NewPet) (Pet, error)")
	assert.Contains(t, pet, "func (s *PetService) Remove(ctx context.Context, petId int64, xRequestId string) (struct{}, error)")

	types := readFile(t, filepath.Join(out, "types.go"))
	assert.Contains(t, types, "type Pet struct {\n\tNewPet\n")
	assert.Contains(t, types, `OrderStatusPlaced`)

	client := readFile(t, filepath.Join(out, "client.go"))
	assert.Contains(t, client, `const DefaultBaseURL = "https://petstore.example.com/api"`)

	if os.Getenv("OAS2CLIENT_E2E_BUILD") == "1" && haveCmd("go") {
		require.NoError(t, os.WriteFile(filepath.Join(out, "go.mod"), []byte("module example.com/petstore\n\ngo 1.22\n"), 0o600))
		if err := runCmdWithTimeout(out, 2*time.Minute, "go", "vet", "./..."); err != nil {
			t.Fatalf("generated client does not build: %v", err)
		}
	}
}

func TestE2E_TypeScript_DescriptionNaming(t *testing.T) {
	t.Parallel()
	dir, configPath := writeProject(t, `{"originUrl": "petstore.yaml", "outDir": "ts", "template": "typescript", "taggedByName": false, "usingOperationId": true}`)
	out := filepath.Join(dir, "ts")

	runCLI(t, "-c", configPath, "generate")
	files, _ := digestDir(t, out)
	// "store" keeps its tag name because its description is not Latin.
	assert.Equal(t, []string{
		".oas2client-manifest",
		"health.ts",
		"index.ts",
		"pet-store.ts",
		"store.ts",
		"types.ts",
	}, files)

	index := readFile(t, filepath.Join(out, "index.ts"))
	assert.Contains(t, index, `import { PetStoreService } from "./pet-store";`)
	assert.Contains(t, index, "readonly petStore: PetStoreService;")
	assert.Contains(t, index, "readonly store: StoreService;")

	types := readFile(t, filepath.Join(out, "types.ts"))
	assert.Contains(t, types, "export interface Pet extends NewPet {")
	assert.Contains(t, types, `export type OrderStatus = "placed" | "approved" | "delivered";`)
	assert.Contains(t, types, "status?: OrderStatus;")

	pet := readFile(t, filepath.Join(out, "pet-store.ts"))
	assert.Contains(t, pet, "export class PetStoreService {")
	assert.Contains(t, pet, "addPet(body: T.NewPet): Promise<T.Pet> {")
	assert.Contains(t, pet, "remove(petId: number, params: { xRequestId?: string } = {}): Promise<void> {")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func haveCmd(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runCmdWithTimeout(dir string, timeout time.Duration, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return &execError{err: err, output: out.String()}
	}
	return nil
}

type execError struct {
	err    error
	output string
}

func (e *execError) Error() string { return e.err.Error() + ": " + strings.TrimSpace(e.output) }
