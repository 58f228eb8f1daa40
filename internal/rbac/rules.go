package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"placement:view",
	},
	"registrar": {
		"student:create",
		"student:view",
		"student:delete",
		"students:bulk_upsert",
		"track:manage",
		"subject:manage",
		"placement:view",
		"placement:run",
		"placement:export",
	},
	"admin": {
		"*", // everything
	},
}
