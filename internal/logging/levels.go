package logging

import (
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const envPrefix = "HISTO_LOG"

// PkgLevel is the adjustable log level of one package.
type PkgLevel struct {
	pkg string
	lvl byte
	al  zap.AtomicLevel
}

// Package returns the package name.
func (pl *PkgLevel) Package() string {
	return pl.pkg
}

// Level returns the level letter.
func (pl *PkgLevel) Level() byte {
	return pl.lvl
}

// SetLevel assigns the level from a letter-prefixed string such as "DEBUG"
// or "W". Unknown input selects the default.
func (pl *PkgLevel) SetLevel(input string) {
	if len(input) == 0 {
		pl.lvl = 'W'
		pl.al.SetLevel(zap.WarnLevel)
		return
	}

	switch c := strings.ToUpper(input[:1])[0]; c {
	case 'V', 'D':
		pl.al.SetLevel(zap.DebugLevel)
		pl.lvl = c
	case 'I':
		pl.al.SetLevel(zap.InfoLevel)
		pl.lvl = c
	case 'W':
		pl.al.SetLevel(zap.WarnLevel)
		pl.lvl = c
	case 'E':
		pl.al.SetLevel(zap.ErrorLevel)
		pl.lvl = c
	case 'F', 'N':
		pl.al.SetLevel(zap.DPanicLevel)
		pl.lvl = c
	default:
		pl.SetLevel("")
	}
}

var (
	pkgLevels   = map[string]*PkgLevel{}
	pkgLevelsMu sync.Mutex
)

// GetLevel finds or creates the level object of pkg.
func GetLevel(pkg string) *PkgLevel {
	pkgLevelsMu.Lock()
	defer pkgLevelsMu.Unlock()

	pl := pkgLevels[pkg]
	if pl == nil {
		pl = &PkgLevel{pkg: pkg, al: zap.NewAtomicLevel()}
		pl.SetLevel(envLevel(pkg))
		pkgLevels[pkg] = pl
	}
	return pl
}

// ListLevels returns every registered package level sorted by package.
func ListLevels() (list []*PkgLevel) {
	pkgLevelsMu.Lock()
	defer pkgLevelsMu.Unlock()

	for _, pl := range pkgLevels {
		list = append(list, pl)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].pkg < list[j].pkg })
	return list
}

// SetAllLevels overrides the level of every registered package.
func SetAllLevels(input string) {
	for _, pl := range ListLevels() {
		pl.SetLevel(input)
	}
}

func envLevel(pkg string) string {
	v, ok := os.LookupEnv(envPrefix + "_" + strings.ToUpper(pkg))
	if !ok {
		v = os.Getenv(envPrefix)
	}
	return v
}
