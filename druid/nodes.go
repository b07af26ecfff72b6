package druid

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"hermannm.dev/enumnames"
	"hermannm.dev/wrap"
)

// NodeSelection decides which of the client's nodes a query is sent to. There is no failover
// between nodes: a query that fails on its node is returned as failed.
type NodeSelection int8

const (
	// Always send to the first node.
	NodeSelectionFirst NodeSelection = iota + 1
	// Rotate through the nodes, one query at a time.
	NodeSelectionRoundRobin
)

var nodeSelectionMap = enumnames.NewMap(map[NodeSelection]string{
	NodeSelectionFirst:      "first",
	NodeSelectionRoundRobin: "round-robin",
})

func (selection NodeSelection) IsValid() bool {
	return nodeSelectionMap.ContainsEnumValue(selection)
}

func (selection NodeSelection) String() string {
	return nodeSelectionMap.GetNameOrFallback(selection, "INVALID_NODE_SELECTION")
}

func (selection NodeSelection) MarshalJSON() ([]byte, error) {
	return nodeSelectionMap.MarshalToNameJSON(selection)
}

func (selection *NodeSelection) UnmarshalJSON(bytes []byte) error {
	return nodeSelectionMap.UnmarshalFromNameJSON(bytes, selection)
}

func ParseNodeSelection(name string) (NodeSelection, error) {
	if selection, ok := nodeSelectionMap.EnumValueFromName(name); ok {
		return selection, nil
	}
	return 0, fmt.Errorf("unrecognized node selection '%s' (expected 'first' or 'round-robin')", name)
}

type nodes struct {
	endpoints []string
	selection NodeSelection
	next      atomic.Uint64
}

func newNodes(addresses []string, queryPath string, selection NodeSelection) (*nodes, error) {
	if len(addresses) == 0 {
		return nil, errors.New("at least one Druid node address is required")
	}
	if !selection.IsValid() {
		return nil, fmt.Errorf("invalid node selection %v", selection)
	}

	endpoints := make([]string, 0, len(addresses))
	for _, address := range addresses {
		endpoint, err := queryEndpoint(address, queryPath)
		if err != nil {
			return nil, wrap.Errorf(err, "invalid Druid node address '%s'", address)
		}
		endpoints = append(endpoints, endpoint)
	}

	return &nodes{endpoints: endpoints, selection: selection}, nil
}

// Addresses without a scheme are assumed to be plain HTTP, e.g. "localhost:8888".
func queryEndpoint(address string, queryPath string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errors.New("address is empty")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	parsed, err := url.Parse(address)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme '%s'", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("address has no host")
	}

	return strings.TrimRight(parsed.String(), "/") + "/" + strings.TrimLeft(queryPath, "/"), nil
}

func (nodes *nodes) pick() string {
	if nodes.selection != NodeSelectionRoundRobin || len(nodes.endpoints) == 1 {
		return nodes.endpoints[0]
	}

	index := (nodes.next.Add(1) - 1) % uint64(len(nodes.endpoints))
	return nodes.endpoints[index]
}
