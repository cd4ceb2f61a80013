// Package keys is the catalog of every condition and action key a rule may
// carry. All keys are registered once, at package initialisation, in Schema.
//
// Item and block descriptors use JSON keys so rule files may write them
// either as compact strings ("minecraft:stick@2") or as structured objects.
package keys

import "github.com/roach88/rulekit/internal/attr"

// Schema holds every registered key. It is read-only after init.
var Schema = attr.NewSchema()

// Condition keys, declared in evaluation cost order.
var (
	// Local arithmetic.
	Random    = attr.Float(Schema, "random")
	Dimension = attr.Int(Schema, "dimension")
	MinTime   = attr.Int(Schema, "mintime")
	MaxTime   = attr.Int(Schema, "maxtime")
	MinHeight = attr.Int(Schema, "minheight")
	MaxHeight = attr.Int(Schema, "maxheight")

	// World state.
	Weather       = attr.String(Schema, "weather")
	Difficulty    = attr.String(Schema, "difficulty")
	MinSpawnDist  = attr.Float(Schema, "minspawndist")
	MaxSpawnDist  = attr.Float(Schema, "maxspawndist")
	MinLight      = attr.Int(Schema, "minlight")
	MaxLight      = attr.Int(Schema, "maxlight")
	MinDifficulty = attr.Float(Schema, "mindifficulty")
	MaxDifficulty = attr.Float(Schema, "maxdifficulty")
	SeeSky        = attr.Bool(Schema, "seesky")
	Summer        = attr.Bool(Schema, "summer")
	Winter        = attr.Bool(Schema, "winter")
	Spring        = attr.Bool(Schema, "spring")
	Autumn        = attr.Bool(Schema, "autumn")
	State         = attr.String(Schema, "state")
	Block         = attr.JSON(Schema, "block")
	BlockOffset   = attr.JSON(Schema, "blockoffset")
	Biome         = attr.String(Schema, "biome")
	BiomeType     = attr.String(Schema, "biometype")
	TempCategory  = attr.String(Schema, "tempcategory")
	Structure     = attr.String(Schema, "structure")
	InCity        = attr.Bool(Schema, "incity")
	InStreet      = attr.Bool(Schema, "instreet")
	InSphere      = attr.Bool(Schema, "insphere")
	InBuilding    = attr.Bool(Schema, "inbuilding")

	// Player scans.
	GameStage     = attr.String(Schema, "gamestage")
	PState        = attr.String(Schema, "pstate")
	Helmet        = attr.JSON(Schema, "helmet")
	Chestplate    = attr.JSON(Schema, "chestplate")
	Leggings      = attr.JSON(Schema, "leggings")
	Boots         = attr.JSON(Schema, "boots")
	HeldItem      = attr.JSON(Schema, "helditem")
	OffhandItem   = attr.JSON(Schema, "offhanditem")
	BothHandsItem = attr.JSON(Schema, "bothhandsitem")
	Amulet        = attr.JSON(Schema, "amulet")
	Ring          = attr.JSON(Schema, "ring")
	Belt          = attr.JSON(Schema, "belt")
	Trinket       = attr.JSON(Schema, "trinket")
	Head          = attr.JSON(Schema, "head")
	Body          = attr.JSON(Schema, "body")
	Charm         = attr.JSON(Schema, "charm")
)

// Action keys, declared in execution order.
var (
	HealthMultiply = attr.Float(Schema, "healthmultiply")
	HealthAdd      = attr.Float(Schema, "healthadd")
	SpeedMultiply  = attr.Float(Schema, "speedmultiply")
	SpeedAdd       = attr.Float(Schema, "speedadd")
	DamageMultiply = attr.Float(Schema, "damagemultiply")
	DamageAdd      = attr.Float(Schema, "damageadd")
	SizeMultiply   = attr.Float(Schema, "sizemultiply")
	SizeAdd        = attr.Float(Schema, "sizeadd")
	Potion         = attr.String(Schema, "potion")
	Angry          = attr.Bool(Schema, "angry")
	MobNBT         = attr.JSON(Schema, "mobnbt")
	SetHeldItem    = attr.JSON(Schema, "sethelditem")
	ArmorHelmet    = attr.JSON(Schema, "armorhelmet")
	ArmorChest     = attr.JSON(Schema, "armorchest")
	ArmorLegs      = attr.JSON(Schema, "armorlegs")
	ArmorBoots     = attr.JSON(Schema, "armorboots")
	Fire           = attr.Int(Schema, "fire")
	Explosion      = attr.String(Schema, "explosion")
	Clear          = attr.Bool(Schema, "clear")
	Damage         = attr.String(Schema, "damage")
	Message        = attr.String(Schema, "message")
	Give           = attr.JSON(Schema, "give")
	Drop           = attr.JSON(Schema, "drop")
	SetBlock       = attr.JSON(Schema, "setblock")
	SetState       = attr.String(Schema, "setstate")
	SetPState      = attr.String(Schema, "setpstate")
)
