package offcache

import (
	"fmt"
	"strings"
)

// Policy selects which origins of a result reach the caller.
type Policy int

const (
	// Local delivers only a cached result, and only while disconnected.
	Local Policy = iota
	// Remote delivers only the network result.
	Remote
	// LocalOrRemote delivers the first qualifying result and drops the rest.
	LocalOrRemote
	// LocalAndRemote delivers every qualifying result, up to one per origin.
	LocalAndRemote
)

func (p Policy) String() string {
	switch p {
	case Local:
		return "local"
	case Remote:
		return "remote"
	case LocalOrRemote:
		return "local-or-remote"
	case LocalAndRemote:
		return "local-and-remote"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts the String forms, case-insensitively, with '-', '_'
// or nothing between words.
func ParsePolicy(s string) (Policy, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	switch norm {
	case "local":
		return Local, nil
	case "remote":
		return Remote, nil
	case "localorremote":
		return LocalOrRemote, nil
	case "localandremote":
		return LocalAndRemote, nil
	}
	return 0, fmt.Errorf("offcache: unknown policy %q", s)
}

// deliveries is the most results a call under p can deliver.
func (p Policy) deliveries() int {
	if p == LocalAndRemote {
		return 2
	}
	return 1
}

// Origin tags where a result came from.
type Origin int

const (
	Cache Origin = iota
	Network
)

func (o Origin) String() string {
	if o == Cache {
		return "cache"
	}
	return "network"
}
