package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"test:view",
		"test:rate",
		"course:view",
		"session:*",
		"playlist:view",
		"playlist:complete",
	},
	"teacher": {
		"test:*",
		"course:*",
		"playlist:*",
		"session:*",
	},
	"admin": {
		"*", // everything
	},
}
