package generator

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/model"
)

func shopSnapshot() *model.SchemaSnapshot {
	return &model.SchemaSnapshot{
		Driver:   "mssql",
		Database: "Shop",
		Tables: []model.TableDefinition{
			{Name: "Users", Columns: []model.ColumnDefinition{
				{Name: "Id", SourceType: "int", IsPrimaryKey: true},
				{Name: "Email", SourceType: "nvarchar"},
			}},
			{Name: "Orders", Columns: []model.ColumnDefinition{
				{Name: "OrderId", SourceType: "bigint", IsPrimaryKey: true},
				{Name: "user_id", SourceType: "int"},
				{Name: "Total", SourceType: "decimal(18,2)"},
				{Name: "ShippedAt", SourceType: "datetime2", Nullable: true},
				{Name: "Notes", SourceType: "nvarchar(max)", Nullable: true},
			}},
			{Name: "AuditLog", Columns: []model.ColumnDefinition{
				{Name: "Message", SourceType: "text"},
				{Name: "At", SourceType: "timestamp"},
			}},
			{Name: "Empty"},
			{Name: "order_lines", Columns: []model.ColumnDefinition{
				{Name: "order_id", SourceType: "bigint", IsPrimaryKey: true},
				{Name: "line_no", SourceType: "int", IsPrimaryKey: true},
				{Name: "IsGift", SourceType: "bit"},
			}},
		},
	}
}

func mustGenerate(t *testing.T, snap *model.SchemaSnapshot, selected []string, opts Options) *Bundle {
	t.Helper()
	b, err := Generate(snap, selected, opts)
	if err != nil {
		t.Fatalf("Generate(%v): %v", selected, err)
	}
	return b
}

func TestGenerateUsersModel(t *testing.T) {
	b := mustGenerate(t, shopSnapshot(), []string{"Users"}, Options{})
	content, ok := b.Map()["Models/Users.cs"]
	if !ok {
		t.Fatalf("Models/Users.cs missing; files: %v", b.Paths())
	}

	want := `using System.ComponentModel.DataAnnotations;
using System.ComponentModel.DataAnnotations.Schema;

namespace GeneratedApp.Models;

[Table("Users")]
public class Users
{
    [Key]
    public int Id { get; set; }

    [Required]
    public string Email { get; set; } = string.Empty;
}
`
	if content != want {
		t.Errorf("Models/Users.cs =\n%s\nwant\n%s", content, want)
	}
}

func TestGenerateDbContextOrder(t *testing.T) {
	b := mustGenerate(t, shopSnapshot(), []string{"Users", "Orders"}, Options{})

	var contexts []string
	for _, p := range b.Paths() {
		if strings.HasSuffix(p, "DbContext.cs") {
			contexts = append(contexts, p)
		}
	}
	if len(contexts) != 1 {
		t.Fatalf("DbContext files = %v, want exactly one", contexts)
	}

	content := b.Map()["Data/AppDbContext.cs"]
	if n := strings.Count(content, "DbSet<"); n != 2 {
		t.Fatalf("DbSet declarations = %d, want 2:\n%s", n, content)
	}
	users := strings.Index(content, "public DbSet<Users> Users")
	orders := strings.Index(content, "public DbSet<Orders> Orders")
	if users < 0 || orders < 0 || users > orders {
		t.Errorf("DbSet order wrong (Users at %d, Orders at %d):\n%s", users, orders, content)
	}

	// Reversed selection reverses the declarations.
	b = mustGenerate(t, shopSnapshot(), []string{"Orders", "Users"}, Options{})
	content = b.Map()["Data/AppDbContext.cs"]
	if strings.Index(content, "DbSet<Orders>") > strings.Index(content, "DbSet<Users>") {
		t.Errorf("reversed selection not honoured:\n%s", content)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	selected := []string{"Orders", "Users", "AuditLog", "order_lines", "Empty"}
	opts := Options{Project: "Shop.Web", ConnectionString: "Server=db1;Database=Shop;User Id=sa;Password=secret;"}

	first := mustGenerate(t, shopSnapshot(), selected, opts)
	for i := 0; i < 5; i++ {
		again := mustGenerate(t, shopSnapshot(), selected, opts)
		if !reflect.DeepEqual(first.Files, again.Files) {
			t.Fatalf("run %d differs from first run", i+1)
		}
	}
}

func TestGenerateFileSet(t *testing.T) {
	b := mustGenerate(t, shopSnapshot(), []string{"Users", "Orders"}, Options{Project: "Shop"})

	want := []string{
		"Models/Users.cs",
		"Repositories/IUsersRepository.cs",
		"Repositories/UsersRepository.cs",
		"Controllers/Api/UsersApiController.cs",
		"Controllers/UsersController.cs",
		"Views/Users/Index.cshtml",
		"Views/Users/Details.cshtml",
		"Views/Users/Create.cshtml",
		"Views/Users/Edit.cshtml",
		"Views/Users/Delete.cshtml",
		"Services/UsersService.cs",
		"Models/Orders.cs",
		"Repositories/IOrdersRepository.cs",
		"Repositories/OrdersRepository.cs",
		"Controllers/Api/OrdersApiController.cs",
		"Controllers/OrdersController.cs",
		"Views/Orders/Index.cshtml",
		"Views/Orders/Details.cshtml",
		"Views/Orders/Create.cshtml",
		"Views/Orders/Edit.cshtml",
		"Views/Orders/Delete.cshtml",
		"Services/OrdersService.cs",
		"Shop.csproj",
		"Program.cs",
		"Data/AppDbContext.cs",
		"Views/Shared/_Layout.cshtml",
		"Views/_ViewImports.cshtml",
		"Views/_ViewStart.cshtml",
		"appsettings.json",
		"openapi.json",
	}
	if got := b.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("Paths() =\n%v\nwant\n%v", got, want)
	}
	if b.Project != "Shop" {
		t.Errorf("Project = %q", b.Project)
	}
	if b.Size() == 0 {
		t.Error("Size() = 0")
	}
}

func TestGenerateLookupError(t *testing.T) {
	b, err := Generate(shopSnapshot(), []string{"Users", "Ghosts"}, Options{})
	var le *LookupError
	if !errors.As(err, &le) {
		t.Fatalf("expected LookupError, got %v", err)
	}
	if le.Table != "Ghosts" {
		t.Errorf("LookupError.Table = %q", le.Table)
	}
	if b != nil {
		t.Errorf("bundle should be nil on lookup failure, got %v", b.Paths())
	}
}

func TestGenerateLookupIsCaseSensitive(t *testing.T) {
	_, err := Generate(shopSnapshot(), []string{"users"}, Options{})
	var le *LookupError
	if !errors.As(err, &le) {
		t.Fatalf("expected LookupError, got %v", err)
	}
}

func TestGenerateNilSnapshot(t *testing.T) {
	_, err := Generate(nil, []string{"Users"}, Options{})
	var le *LookupError
	if !errors.As(err, &le) {
		t.Fatalf("expected LookupError, got %v", err)
	}
}

func TestGenerateEmptySelection(t *testing.T) {
	for _, sel := range [][]string{nil, {}} {
		if _, err := Generate(shopSnapshot(), sel, Options{}); !errors.Is(err, ErrNoTables) {
			t.Errorf("Generate(%v) error = %v, want ErrNoTables", sel, err)
		}
	}
}

func TestGenerateDuplicatesCollapsed(t *testing.T) {
	b := mustGenerate(t, shopSnapshot(), []string{"Users", "Orders", "Users"}, Options{})
	ctx := b.Map()["Data/AppDbContext.cs"]
	if n := strings.Count(ctx, "DbSet<Users>"); n != 1 {
		t.Errorf("DbSet<Users> declared %d times", n)
	}
	if len(b.Files) != 2*len(tableArtifacts)+1+len(sharedArtifacts)+2 {
		t.Errorf("file count = %d", len(b.Files))
	}
}

func TestGenerateTableCollision(t *testing.T) {
	snap := &model.SchemaSnapshot{Tables: []model.TableDefinition{
		{Name: "order_items", Columns: []model.ColumnDefinition{{Name: "Id", SourceType: "int", IsPrimaryKey: true}}},
		{Name: "OrderItems", Columns: []model.ColumnDefinition{{Name: "Id", SourceType: "int", IsPrimaryKey: true}}},
	}}
	_, err := Generate(snap, []string{"order_items", "OrderItems"}, Options{})
	var ce *CollisionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CollisionError, got %v", err)
	}
	if ce.Identifier != "OrderItems" || ce.Table != "" {
		t.Errorf("CollisionError = %+v", ce)
	}
}

func TestGenerateColumnCollision(t *testing.T) {
	snap := &model.SchemaSnapshot{Tables: []model.TableDefinition{
		{Name: "Users", Columns: []model.ColumnDefinition{
			{Name: "user_name", SourceType: "nvarchar"},
			{Name: "UserName", SourceType: "nvarchar"},
		}},
	}}
	_, err := Generate(snap, []string{"Users"}, Options{})
	var ce *CollisionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CollisionError, got %v", err)
	}
	if ce.Table != "Users" || ce.Identifier != "UserName" {
		t.Errorf("CollisionError = %+v", ce)
	}
}

func TestGenerateKeyFallbacks(t *testing.T) {
	b := mustGenerate(t, shopSnapshot(), []string{"AuditLog", "Empty"}, Options{})
	files := b.Map()

	// No primary key: the first column becomes the key.
	audit := files["Models/AuditLog.cs"]
	if !strings.Contains(audit, "[Key]\n    [Required]\n    public string Message") {
		t.Errorf("AuditLog key should fall back to first column:\n%s", audit)
	}
	if !strings.Contains(files["Repositories/IAuditLogRepository.cs"], "GetByIdAsync(string id)") {
		t.Errorf("AuditLog repository should key on string")
	}

	// No columns at all: a synthetic int Id key.
	empty := files["Models/Empty.cs"]
	if !strings.Contains(empty, "[Key]\n    public int Id { get; set; }") {
		t.Errorf("Empty should get a synthetic key:\n%s", empty)
	}
}

func TestGenerateCompositeKey(t *testing.T) {
	b := mustGenerate(t, shopSnapshot(), []string{"order_lines"}, Options{})
	files := b.Map()

	m := files["Models/OrderLines.cs"]
	for _, frag := range []string{
		`[Table("order_lines")]`,
		"[PrimaryKey(nameof(OrderId), nameof(LineNo))]",
		`[Column("order_id")]`,
		"public bool IsGift { get; set; }",
		"using Microsoft.EntityFrameworkCore;",
	} {
		if !strings.Contains(m, frag) {
			t.Errorf("model missing %q:\n%s", frag, m)
		}
	}
	if strings.Contains(m, "[Key]") {
		t.Errorf("composite key model must not use [Key]:\n%s", m)
	}
	if !strings.Contains(files["Controllers/Api/OrderLinesApiController.cs"], `[Route("api/orderlines")]`) {
		t.Error("API route not derived from type name")
	}
	if !strings.Contains(files["Views/OrderLines/Create.cshtml"], `form-check-input" asp-for="IsGift"`) {
		t.Error("boolean field should render as checkbox")
	}

	repo := files["Repositories/OrderLinesRepository.cs"]
	note := "// OrderLines has a composite key (OrderId, LineNo).\n// GetByIdAsync, DeleteAsync and ExistsAsync match on OrderId only.\n\npublic class OrderLinesRepository"
	if !strings.Contains(repo, note) {
		t.Errorf("repository should note the composite key lookup:\n%s", repo)
	}
	if users := mustGenerate(t, shopSnapshot(), []string{"Users"}, Options{}).Map()["Repositories/UsersRepository.cs"]; !strings.Contains(users, "Repositories;\n\npublic class UsersRepository") || strings.Contains(users, "composite key") {
		t.Errorf("single-key repository should carry no composite note:\n%s", users)
	}
}

func TestGenerateSymbolOnlyTableName(t *testing.T) {
	snap := &model.SchemaSnapshot{Tables: []model.TableDefinition{
		{Name: "$$", Columns: []model.ColumnDefinition{{Name: "Id", SourceType: "int", IsPrimaryKey: true}}},
	}}
	b := mustGenerate(t, snap, []string{"$$"}, Options{})
	files := b.Map()

	m, ok := files["Models/UnnamedTable.cs"]
	if !ok {
		t.Fatalf("model missing; have %v", b.Paths())
	}
	if !strings.Contains(m, `[Table("$$")]`) {
		t.Errorf("model should map to the original table:\n%s", m)
	}
	if !strings.Contains(files["Controllers/Api/UnnamedTableApiController.cs"], `[Route("api/unnamedtable")]`) {
		t.Error("API route should not be empty")
	}
	if strings.Contains(files["openapi.json"], `"/api/"`) {
		t.Error("openapi.json has an empty collection path")
	}
}

func TestGenerateNullableTypes(t *testing.T) {
	b := mustGenerate(t, shopSnapshot(), []string{"Orders"}, Options{})
	m := b.Map()["Models/Orders.cs"]
	for _, frag := range []string{
		"public long OrderId { get; set; }",
		"public int UserId { get; set; }",
		"public decimal Total { get; set; }",
		"public DateTime? ShippedAt { get; set; }",
		"public string? Notes { get; set; }",
		`[Column("user_id")]`,
	} {
		if !strings.Contains(m, frag) {
			t.Errorf("Orders model missing %q:\n%s", frag, m)
		}
	}
	if strings.Contains(m, "string? Notes { get; set; } =") {
		t.Error("nullable string should not be initialised")
	}
}

func TestGenerateSharedFilesRegisterEveryTable(t *testing.T) {
	b := mustGenerate(t, shopSnapshot(), []string{"Users", "Orders"}, Options{})
	files := b.Map()

	program := files["Program.cs"]
	for _, frag := range []string{
		"AddScoped<IUsersRepository, UsersRepository>()",
		"AddScoped<UsersService>()",
		"AddScoped<IOrdersRepository, OrdersRepository>()",
		"AddScoped<OrdersService>()",
		"options.UseSqlServer(connectionString)",
		"{controller=Users}",
	} {
		if !strings.Contains(program, frag) {
			t.Errorf("Program.cs missing %q:\n%s", frag, program)
		}
	}

	layout := files["Views/Shared/_Layout.cshtml"]
	if strings.Count(layout, `class="nav-item"`) != 2 {
		t.Errorf("layout should list 2 tables:\n%s", layout)
	}
}

func TestGenerateDriverSelectsEFProvider(t *testing.T) {
	snap := shopSnapshot()
	snap.Driver = "postgres"
	b := mustGenerate(t, snap, []string{"Users"}, Options{})
	if csproj := b.Map()["GeneratedApp.csproj"]; !strings.Contains(csproj, "Npgsql.EntityFrameworkCore.PostgreSQL") {
		t.Errorf("csproj should reference Npgsql:\n%s", csproj)
	}

	b = mustGenerate(t, snap, []string{"Users"}, Options{Driver: "sqlite"})
	if program := b.Map()["Program.cs"]; !strings.Contains(program, "UseSqlite(connectionString)") {
		t.Errorf("explicit driver should win:\n%s", program)
	}

	snap.Driver = "demo"
	b = mustGenerate(t, snap, []string{"Users"}, Options{})
	if csproj := b.Map()["GeneratedApp.csproj"]; !strings.Contains(csproj, "Microsoft.EntityFrameworkCore.SqlServer") {
		t.Errorf("unknown driver should fall back to SQL Server:\n%s", csproj)
	}
}

func TestGenerateAppSettingsMasksPassword(t *testing.T) {
	b := mustGenerate(t, shopSnapshot(), []string{"Users"}, Options{
		ConnectionString: "Data Source=db1;Initial Catalog=Shop;Uid=sa;Pwd=hunter2",
	})
	for path, content := range b.Map() {
		if strings.Contains(content, "hunter2") {
			t.Errorf("%s leaks the password", path)
		}
	}

	var settings struct {
		ConnectionStrings struct {
			DefaultConnection string
		}
	}
	if err := json.Unmarshal([]byte(b.Map()["appsettings.json"]), &settings); err != nil {
		t.Fatalf("appsettings.json: %v", err)
	}
	if got := settings.ConnectionStrings.DefaultConnection; got != "Server=db1;Database=Shop;User Id=sa;Password=***;" {
		t.Errorf("DefaultConnection = %q", got)
	}
}

func TestGenerateRejectsMalformedConnectionString(t *testing.T) {
	_, err := Generate(shopSnapshot(), []string{"Users"}, Options{ConnectionString: "not a descriptor"})
	if !connector.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGenerateProjectNamespace(t *testing.T) {
	tests := []struct {
		project string
		want    string
	}{
		{"", "GeneratedApp"},
		{"shop", "Shop"},
		{"acme.shop-web", "Acme.ShopWeb"},
		{"..", "GeneratedApp"},
	}
	for _, tt := range tests {
		b := mustGenerate(t, shopSnapshot(), []string{"Users"}, Options{Project: tt.project})
		if b.Project != tt.want {
			t.Errorf("Project(%q) = %q, want %q", tt.project, b.Project, tt.want)
		}
		if _, ok := b.Map()[tt.want+".csproj"]; !ok {
			t.Errorf("missing %s.csproj", tt.want)
		}
		if !strings.Contains(b.Map()["Models/Users.cs"], "namespace "+tt.want+".Models;") {
			t.Errorf("model namespace not %s", tt.want)
		}
	}
}

func TestGenerateMemberNamedLikeType(t *testing.T) {
	snap := &model.SchemaSnapshot{Tables: []model.TableDefinition{
		{Name: "Status", Columns: []model.ColumnDefinition{
			{Name: "Id", SourceType: "int", IsPrimaryKey: true},
			{Name: "Status", SourceType: "nvarchar(20)"},
		}},
	}}
	b := mustGenerate(t, snap, []string{"Status"}, Options{})
	m := b.Map()["Models/Status.cs"]
	if !strings.Contains(m, `[Column("Status")]`) || !strings.Contains(m, "public string StatusValue") {
		t.Errorf("member clashing with type name not renamed:\n%s", m)
	}
}

func TestGenerateEscapesRazor(t *testing.T) {
	snap := &model.SchemaSnapshot{Tables: []model.TableDefinition{
		{Name: "<Tags>", Columns: []model.ColumnDefinition{{Name: "Id", SourceType: "int", IsPrimaryKey: true}}},
	}}
	b := mustGenerate(t, snap, []string{"<Tags>"}, Options{})
	index := b.Map()["Views/Tags/Index.cshtml"]
	if !strings.Contains(index, "<h1>&lt;Tags&gt;</h1>") {
		t.Errorf("table name not escaped:\n%s", index)
	}
}
