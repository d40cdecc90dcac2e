package ruletable

// AllEntities marks an event any entity kind can receive.
const AllEntities = "所有实体"

// EventMountRestrictions maps an event node title to the entity kinds whose
// graphs receive it. Events not listed are unrestricted.
var EventMountRestrictions = map[string][]string{
	"实体创建时":      {AllEntities},
	"实体销毁时":      {EntityLevel},
	"实体移除/销毁时":   {EntityLevel},
	"角色倒下时":      {EntityCharacter},
	"角色复苏时":      {EntityCharacter},
	"玩家传送完成时":    {EntityPlayer},
	"玩家所有角色倒下时":  {EntityPlayer},
	"玩家所有角色复苏时":  {EntityPlayer},
	"玩家异常倒下并复苏时": {EntityPlayer},
}

// EventAllowedOn reports whether graphs mounted on entityType can receive event.
func EventAllowedOn(event, entityType string) bool {
	allowed, ok := EventMountRestrictions[event]
	if !ok {
		return true
	}
	norm := NormalizeEntityType(entityType)
	for _, a := range allowed {
		if a == AllEntities || a == norm || a == entityType {
			return true
		}
	}
	return false
}
