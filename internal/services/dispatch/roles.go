package dispatch

import (
	"strings"

	"citywatch-worker/internal/models"
)

// roleByLabel is the static routing table. Lookup is case-insensitive;
// labels missing here resolve to RoleUnknown and are skipped.
var roleByLabel = map[string]models.Role{
	models.LabelFire:     models.RoleFireDepartment,
	models.LabelSmoke:    models.RoleFireDepartment,
	models.LabelGun:      models.RoleLawEnforcement,
	models.LabelAccident: models.RoleMedicalServices,
	models.LabelPothole:  models.RoleRoadMaintenance,
}

// ResolveRole maps a detected label to its responsible role. The second
// return value is false for labels no authority is responsible for.
func ResolveRole(label string) (models.Role, bool) {
	role, ok := roleByLabel[strings.ToLower(label)]
	if !ok {
		return models.RoleUnknown, false
	}
	return role, true
}
