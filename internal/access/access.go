// Package access описывает ранги ролей и правила авторизации действий в проекте.
package access

import "github.com/untibullet/project-hub/internal/models"

// Rank возвращает ранг роли: manager=3, deputy=2, member=1, иначе 0
func Rank(role models.Role) int {
	switch role {
	case models.RoleManager:
		return 3
	case models.RoleDeputy:
		return 2
	case models.RoleMember:
		return 1
	default:
		return 0
	}
}

// IsMember сообщает, является ли роль ролью участника проекта
func IsMember(role models.Role) bool {
	return Rank(role) > 0
}

// AtLeast проверяет, что роль не ниже требуемой
func AtLeast(role, required models.Role) bool {
	return Rank(role) > 0 && Rank(role) >= Rank(required)
}

// Outranks проверяет, что actor строго старше target
func Outranks(actor, target models.Role) bool {
	return Rank(actor) > Rank(target)
}

// CanKick: управляющий исключает кого угодно, заместитель только участников
func CanKick(actor, target models.Role) bool {
	return IsMember(target) && Outranks(actor, target)
}

// CanManage разрешает управление заявками, этапами и задачами
func CanManage(role models.Role) bool {
	return AtLeast(role, models.RoleDeputy)
}

// CanSeePromotions: заявки на повышение видит только управляющий
func CanSeePromotions(role models.Role) bool {
	return role == models.RoleManager
}

// CanLeave: управляющий не может покинуть проект
func CanLeave(role models.Role) bool {
	return IsMember(role) && role != models.RoleManager
}

// CanRequestPromotion: заявку на повышение подает только рядовой участник
func CanRequestPromotion(role models.Role) bool {
	return role == models.RoleMember
}

// CanDeleteFile: управляющий, заместитель или владелец файла
func CanDeleteFile(role models.Role, actorID, ownerID string) bool {
	if CanManage(role) {
		return true
	}
	return IsMember(role) && actorID != "" && actorID == ownerID
}

// Promoted возвращает роль на ранг выше; управляющим стать нельзя
func Promoted(role models.Role) (models.Role, bool) {
	if role == models.RoleMember {
		return models.RoleDeputy, true
	}
	return role, false
}

// Demoted возвращает роль на ранг ниже; управляющего понизить нельзя
func Demoted(role models.Role) (models.Role, bool) {
	if role == models.RoleDeputy {
		return models.RoleMember, true
	}
	return role, false
}
