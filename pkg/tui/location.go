package tui

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type tab int

const (
	tabTransactions tab = iota
	tabInternal
	tabContract
)

var tabNames = []string{"transactions", "internal", "contract"}

func (t tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return tabNames[tabTransactions]
	}
	return tabNames[t]
}

// tabFromFragment maps a location fragment to a tab. Unknown or empty
// fragments select the default tab.
func tabFromFragment(fragment string) tab {
	fragment = strings.ToLower(strings.TrimPrefix(fragment, "#"))
	for i, name := range tabNames {
		if fragment == name {
			return tab(i)
		}
	}
	return tabTransactions
}

// location is an address page plus the tab its fragment selects.
type location struct {
	addr string
	tab  tab
}

func (l location) String() string {
	if l.tab == tabTransactions {
		return l.addr
	}
	return l.addr + "#" + l.tab.String()
}

// parseLocation accepts "0x...", "0x...#tab", "/addr/0x...#tab" and full
// explorer URLs ending in an address path.
func parseLocation(s string) (location, error) {
	s = strings.TrimSpace(s)
	var fragment string
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s, fragment = s[:i], s[i+1:]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/addr/"); i >= 0 {
		s = s[i+len("/addr/"):]
	}
	if !common.IsHexAddress(s) {
		return location{}, fmt.Errorf("invalid address %q", s)
	}
	return location{addr: s, tab: tabFromFragment(fragment)}, nil
}
