package ruletable

// EntityType describes what an entity kind may carry.
type EntityType struct {
	Name              string
	AllowedComponents []string
	// Rotation is "", "是" or "仅Y轴".
	Rotation string
	// NoGraphs marks kinds that may not carry node graphs.
	NoGraphs  bool
	AliasOf   string
	Reference string
}

// Entity kind names.
const (
	EntityLevel         = "关卡"
	EntityCharacter     = "角色"
	EntityStaticObject  = "物件-静态"
	EntityDynamicObject = "物件-动态"
	EntityObject        = "物件"
	EntityProjectile    = "本地投射物"
	EntityPlayer        = "玩家"
	EntityCreation      = "造物"
	EntityUIControl     = "UI控件"
	EntitySkill         = "技能"
)

var objectComponents = []string{
	"碰撞触发器", "自定义变量", "定时器", "全局计时器", "单位状态", "特效播放",
	"自定义挂接点", "碰撞触发源", "背包", "战利品", "铭牌", "文本气泡",
}

// EntityTypes is the entity capability table.
var EntityTypes = map[string]EntityType{
	EntityLevel: {
		Name:              EntityLevel,
		AllowedComponents: []string{"自定义变量", "全局计时器"},
		Reference:         "关卡.md:1-38",
	},
	EntityCharacter: {
		Name: EntityCharacter,
		AllowedComponents: []string{
			"碰撞触发器", "自定义变量", "全局计时器", "单位状态", "特效播放", "单位挂接点",
			"碰撞触发源", "背包", "战利品", "铭牌", "气泡", "装备栏",
		},
		Rotation:  "是",
		Reference: "角色.md:1-29",
	},
	EntityStaticObject: {
		Name:      EntityStaticObject,
		Rotation:  "是",
		NoGraphs:  true,
		Reference: "物件.md:8-10",
	},
	EntityDynamicObject: {
		Name:              EntityDynamicObject,
		AllowedComponents: objectComponents,
		Rotation:          "是",
		Reference:         "物件.md:12-14",
	},
	EntityObject: {
		Name:              EntityObject,
		AllowedComponents: objectComponents,
		Rotation:          "是",
		AliasOf:           EntityDynamicObject,
		Reference:         "物件.md",
	},
	EntityProjectile: {
		Name:              EntityProjectile,
		AllowedComponents: []string{"特效播放", "投射运动器", "命中检测"},
		Rotation:          "是",
		Reference:         "本地投射物.md:1-62",
	},
	EntityPlayer: {
		Name:              EntityPlayer,
		AllowedComponents: []string{"自定义变量", "全局计时器", "单位状态"},
		Reference:         "玩家.md:1-40",
	},
	EntityCreation: {
		Name: EntityCreation,
		AllowedComponents: []string{
			"选项卡", "碰撞触发器", "自定义变量", "全局计时器", "单位状态", "特效播放",
			"自定义挂接点", "碰撞触发源", "背包", "战利品", "铭牌", "文本气泡", "商店",
		},
		Rotation:  "仅Y轴",
		Reference: "造物.md:1-80",
	},
	EntityUIControl: {
		Name:      EntityUIControl,
		Reference: "概念介绍/资产/界面控件/",
	},
	EntitySkill: {
		Name:      EntitySkill,
		Reference: "技能.md:1-155",
	},
}

// TemplateEntityTypes are the kinds a template may declare without a warning.
var TemplateEntityTypes = []string{
	EntityCharacter, EntityObject, EntityDynamicObject, EntityStaticObject,
	EntityCreation, EntityProjectile, EntityPlayer,
}

// TemplateForbiddenTypes may never be used as template kinds.
var TemplateForbiddenTypes = []string{EntityLevel, EntityUIControl}

// NormalizeEntityType resolves aliases, e.g. 物件 -> 物件-动态.
func NormalizeEntityType(name string) string {
	if et, ok := EntityTypes[name]; ok && et.AliasOf != "" {
		return et.AliasOf
	}
	return name
}

// LookupEntityType returns the capability entry for name after alias resolution.
func LookupEntityType(name string) (EntityType, bool) {
	et, ok := EntityTypes[NormalizeEntityType(name)]
	return et, ok
}

// ComponentAllowed reports whether the entity kind may carry component.
func ComponentAllowed(entityType, component string) bool {
	et, ok := LookupEntityType(entityType)
	if !ok {
		return false
	}
	for _, c := range et.AllowedComponents {
		if c == component {
			return true
		}
	}
	return false
}

// CanCarryGraphs reports whether the entity kind may carry node graphs.
// Unknown kinds are not restricted here; type legality is checked separately.
func CanCarryGraphs(entityType string) bool {
	et, ok := LookupEntityType(entityType)
	return !ok || !et.NoGraphs
}
