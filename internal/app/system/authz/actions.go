package authz

import "github.com/chapelware/chapelhub/internal/domain/models"

// Action names a privileged operation. Keeping the action → roles table in
// one place keeps authorization auditable and testable in isolation,
// instead of scattering role conditionals through handlers.
type Action string

// Tenant-scoped actions.
const (
	ActionProgramManage     Action = "program.manage"
	ActionCourseManage      Action = "course.manage"
	ActionClassManage       Action = "class.manage"
	ActionContentView       Action = "content.view"
	ActionEnrollSelf        Action = "enrollment.self"
	ActionEnrollManage      Action = "enrollment.manage"
	ActionMemberManage      Action = "member.manage"
	ActionAssetManage       Action = "asset.manage"
	ActionIntegrationManage Action = "integration.manage"
	ActionBillingManage     Action = "billing.manage"
	ActionSettingsManage    Action = "settings.manage"
	ActionAuditView         Action = "audit.view"
)

// Platform actions (superadmin only, never under a tenant context).
const (
	ActionPlatformSettings Action = "platform.settings"
	ActionPlatformAudit    Action = "platform.audit"
	ActionChurchProvision  Action = "platform.church.provision"
)

var allowedRoles = map[Action][]string{
	ActionProgramManage:     {models.RoleChurchAdmin},
	ActionCourseManage:      {models.RoleChurchAdmin},
	ActionClassManage:       {models.RoleChurchAdmin, models.RoleFacilitator},
	ActionContentView:       {models.RoleStudent, models.RoleFacilitator, models.RoleChurchAdmin},
	ActionEnrollSelf:        {models.RoleStudent},
	ActionEnrollManage:      {models.RoleChurchAdmin, models.RoleFacilitator},
	ActionMemberManage:      {models.RoleChurchAdmin},
	ActionAssetManage:       {models.RoleChurchAdmin, models.RoleFacilitator},
	ActionIntegrationManage: {models.RoleChurchAdmin},
	ActionBillingManage:     {models.RoleChurchAdmin},
	ActionSettingsManage:    {models.RoleChurchAdmin},
	ActionAuditView:         {models.RoleChurchAdmin},

	ActionPlatformSettings: {models.RoleSuperAdmin},
	ActionPlatformAudit:    {models.RoleSuperAdmin},
	ActionChurchProvision:  {models.RoleSuperAdmin},
}

var platformActions = map[Action]bool{
	ActionPlatformSettings: true,
	ActionPlatformAudit:    true,
	ActionChurchProvision:  true,
}

// RolesFor returns a copy of the roles allowed for an action, for route
// middleware that wants the same table.
func RolesFor(action Action) []string {
	roles := allowedRoles[action]
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// IsPlatformAction reports whether the action runs at platform scope.
func IsPlatformAction(action Action) bool {
	return platformActions[action]
}

func roleAllowed(role string, action Action) bool {
	for _, allowed := range allowedRoles[action] {
		if role == allowed {
			return true
		}
	}
	return false
}
