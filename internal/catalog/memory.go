package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/eugenenazirov/load-planner/internal/packing"
)

// MemoryCatalog keeps the catalog in-memory and guards access with a RWMutex.
type MemoryCatalog struct {
	mu         sync.RWMutex
	items      []packing.ItemType
	containers []packing.ContainerType
	itemIdx    map[string]int
	contIdx    map[string]int
}

// NewMemoryCatalog initialises a catalog with a copy of the default entries.
func NewMemoryCatalog() *MemoryCatalog {
	c := &MemoryCatalog{}
	if err := c.Replace(DefaultItemTypes(), DefaultContainerTypes()); err != nil {
		panic(fmt.Sprintf("default catalog is invalid: %v", err))
	}
	return c
}

// ItemType returns the item type with the given id.
func (c *MemoryCatalog) ItemType(_ context.Context, id string) (packing.ItemType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.itemIdx[id]
	if !ok {
		return packing.ItemType{}, &NotFoundError{Kind: KindItem, ID: id}
	}
	return c.items[i], nil
}

// ContainerType returns the container type with the given id.
func (c *MemoryCatalog) ContainerType(_ context.Context, id string) (packing.ContainerType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.contIdx[id]
	if !ok {
		return packing.ContainerType{}, &NotFoundError{Kind: KindContainer, ID: id}
	}
	return c.containers[i], nil
}

// ItemTypes returns a defensive copy of all item types in catalog order.
func (c *MemoryCatalog) ItemTypes(context.Context) ([]packing.ItemType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]packing.ItemType, len(c.items))
	copy(out, c.items)
	return out, nil
}

// ContainerTypes returns a defensive copy of all container types in catalog order.
func (c *MemoryCatalog) ContainerTypes(context.Context) ([]packing.ContainerType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]packing.ContainerType, len(c.containers))
	copy(out, c.containers)
	return out, nil
}

// Replace validates and swaps in a new set of entries.
func (c *MemoryCatalog) Replace(items []packing.ItemType, containers []packing.ContainerType) error {
	itemIdx, err := indexItems(items)
	if err != nil {
		return err
	}
	contIdx, err := indexContainers(containers)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items = append([]packing.ItemType(nil), items...)
	c.containers = append([]packing.ContainerType(nil), containers...)
	c.itemIdx = itemIdx
	c.contIdx = contIdx
	c.mu.Unlock()

	return nil
}

func indexItems(items []packing.ItemType) (map[string]int, error) {
	idx := make(map[string]int, len(items))
	for i, item := range items {
		id := item.ID
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: item type at position %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := idx[id]; dup {
			return nil, fmt.Errorf("%w: duplicate item type id %q", ErrInvalidCatalog, id)
		}
		if item.Length <= 0 || item.Width <= 0 || item.Height <= 0 {
			return nil, fmt.Errorf("%w: item type %q must have positive dimensions", ErrInvalidCatalog, id)
		}
		if item.Weight < 0 {
			return nil, fmt.Errorf("%w: item type %q has negative weight", ErrInvalidCatalog, id)
		}
		idx[id] = i
	}
	return idx, nil
}

func indexContainers(containers []packing.ContainerType) (map[string]int, error) {
	idx := make(map[string]int, len(containers))
	for i, container := range containers {
		id := container.ID
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: container type at position %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := idx[id]; dup {
			return nil, fmt.Errorf("%w: duplicate container type id %q", ErrInvalidCatalog, id)
		}
		if err := container.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		idx[id] = i
	}
	return idx, nil
}

// Ensure MemoryCatalog implements Catalog.
var _ Catalog = (*MemoryCatalog)(nil)
