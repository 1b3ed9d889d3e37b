// Package libloot is a load-order optimisation library for a family of
// moddable role-playing games. Given the installed plugins and two curated
// metadata documents — a masterlist authored by a central project and a
// userlist authored by the end user — it computes a totally ordered load
// sequence that respects the game's structural constraints, satisfies
// ordering hints, group assignments, requirements and incompatibilities,
// and resolves remaining ties deterministically.
package libloot

import (
	"fmt"
	"strings"
)

// GameType identifies one of the supported games. The set is closed; the
// zero value is Tes4.
type GameType int

const (
	// Tes4 is The Elder Scrolls IV: Oblivion.
	Tes4 GameType = iota
	// Tes5 is The Elder Scrolls V: Skyrim.
	Tes5
	// Tes5SE is The Elder Scrolls V: Skyrim Special Edition.
	Tes5SE
	// Fo3 is Fallout 3.
	Fo3
	// FoNV is Fallout: New Vegas.
	FoNV
	// Fo4 is Fallout 4.
	Fo4
	// Starfield is Starfield.
	Starfield
)

var gameTypeNames = map[GameType]string{
	Tes4:      "tes4",
	Tes5:      "tes5",
	Tes5SE:    "tes5se",
	Fo3:       "fo3",
	FoNV:      "fonv",
	Fo4:       "fo4",
	Starfield: "starfield",
}

// String returns the identifier used for the game type in configuration.
func (t GameType) String() string {
	if name, ok := gameTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("GameType(%d)", int(t))
}

// IsValid reports whether t is one of the supported games.
func (t GameType) IsValid() bool {
	_, ok := gameTypeNames[t]
	return ok
}

// ParseGameType resolves a game type identifier. Unknown identifiers are
// an error.
func ParseGameType(name string) (GameType, error) {
	for t, n := range gameTypeNames {
		if strings.EqualFold(name, n) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown game type %q", name)
}

// MasterFilename returns the game's own master plugin, which precedes all
// other plugins.
func (t GameType) MasterFilename() string {
	switch t {
	case Tes4:
		return "Oblivion.esm"
	case Tes5, Tes5SE:
		return "Skyrim.esm"
	case Fo3:
		return "Fallout3.esm"
	case FoNV:
		return "FalloutNV.esm"
	case Fo4:
		return "Fallout4.esm"
	case Starfield:
		return "Starfield.esm"
	default:
		return ""
	}
}

// HardcodedPlugins returns the game-imposed ordering mandates, earliest
// first. Only installed entries constrain a sort.
func (t GameType) HardcodedPlugins() []string {
	switch t {
	case Tes5:
		return []string{"Skyrim.esm", "Update.esm"}
	case Tes5SE:
		return []string{
			"Skyrim.esm",
			"Update.esm",
			"Dawnguard.esm",
			"HearthFires.esm",
			"Dragonborn.esm",
		}
	case Fo4:
		return []string{
			"Fallout4.esm",
			"DLCRobot.esm",
			"DLCworkshop01.esm",
			"DLCCoast.esm",
			"DLCworkshop02.esm",
			"DLCworkshop03.esm",
			"DLCNukaWorld.esm",
		}
	case Starfield:
		return []string{
			"Starfield.esm",
			"Constellation.esm",
			"OldMars.esm",
			"SFBGS003.esm",
			"SFBGS006.esm",
			"SFBGS007.esm",
			"SFBGS008.esm",
		}
	default:
		return []string{t.MasterFilename()}
	}
}

// SupportsLightPlugins reports whether the game has a light plugin address
// space.
func (t GameType) SupportsLightPlugins() bool {
	switch t {
	case Tes5SE, Fo4, Starfield:
		return true
	default:
		return false
	}
}

// SupportsMediumPlugins reports whether the game has a medium plugin
// address space.
func (t GameType) SupportsMediumPlugins() bool {
	return t == Starfield
}
