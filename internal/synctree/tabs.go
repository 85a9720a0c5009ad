package synctree

import (
	"fmt"
	"strings"
)

// Category is one of the fixed content roots shown as a tab.
type Category int

const (
	CategoryMods Category = iota
	CategoryConfig
	CategoryDefaultConfigs
	CategoryResourcePacks
	CategoryShaderPacks
	CategoryServerScripts
	CategoryClientScripts
)

type categoryDef struct {
	key      string
	title    string
	segments []string
}

var categoryDefs = map[Category]categoryDef{
	CategoryMods:           {"mods", "Mods", []string{"mods"}},
	CategoryConfig:         {"config", "Config", []string{"config"}},
	CategoryDefaultConfigs: {"defaultconfigs", "Default configs", []string{"defaultconfigs"}},
	CategoryResourcePacks:  {"resourcepacks", "Resource packs", []string{"resourcepacks"}},
	CategoryShaderPacks:    {"shaderpacks", "Shader packs", []string{"shaderpacks"}},
	CategoryServerScripts:  {"server-scripts", "Server scripts", []string{"kubejs", "server_scripts"}},
	CategoryClientScripts:  {"client-scripts", "Client scripts", []string{"kubejs", "client_scripts"}},
}

// Categories returns every category in tab order.
func Categories() []Category {
	return []Category{
		CategoryMods,
		CategoryConfig,
		CategoryDefaultConfigs,
		CategoryResourcePacks,
		CategoryShaderPacks,
		CategoryServerScripts,
		CategoryClientScripts,
	}
}

func mustCategory(c Category) categoryDef {
	def, ok := categoryDefs[c]
	if !ok {
		panic(fmt.Sprintf("synctree: unknown category %d", int(c)))
	}
	return def
}

func (c Category) String() string     { return mustCategory(c).key }
func (c Category) Title() string      { return mustCategory(c).title }
func (c Category) Segments() []string { return append([]string(nil), mustCategory(c).segments...) }

// Root returns the slash separated root path of the category.
func (c Category) Root() string { return strings.Join(mustCategory(c).segments, "/") }

// ParseCategory accepts the String form of a category.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if categoryDefs[c].key == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Tab is one category subtree of the merged tree.
type Tab struct {
	Category Category
	Title    string
	Root     *Node
}

// BuildTabs runs the whole pipeline for every category. It reads only its
// arguments and is safe to call from any goroutine.
func BuildTabs(local, remote []Entry, mode Mode) []Tab {
	return BuildTabsFor(local, remote, mode, Categories())
}

// BuildTabsFor is BuildTabs restricted to the given categories.
func BuildTabsFor(local, remote []Entry, mode Mode, cats []Category) []Tab {
	return assembleTabs(build(local, remote), mode, cats)
}

func assembleTabs(tree *pathNode, mode Mode, cats []Category) []Tab {
	tabs := make([]Tab, 0, len(cats))
	for _, c := range cats {
		def := mustCategory(c)
		pn := tree
		for _, seg := range def.segments {
			if pn = pn.find(seg, true); pn == nil {
				break
			}
		}
		var root *Node
		if pn == nil {
			root = newPlaceholder(strings.Join(def.segments, "/"), mode)
		} else {
			root = newNode(pn, mode)
		}
		tabs = append(tabs, Tab{Category: c, Title: def.title, Root: root})
	}
	return tabs
}

// Roots returns the root node of every tab.
func Roots(tabs []Tab) []*Node {
	roots := make([]*Node, len(tabs))
	for i, t := range tabs {
		roots[i] = t.Root
	}
	return roots
}
