package cache

import (
	"fmt"

	"github.com/ripsline/btcwatch/internal/descriptor"
	"github.com/ripsline/btcwatch/internal/scripthash"
	"github.com/ripsline/btcwatch/internal/store"
)

// PushDescriptor parses and registers expr. A descriptor whose key path
// contains a "<a;b>" multi-path element splits into two independently
// tracked descriptors (e.g. receive and change branches), each immediately
// derived out to the gap limit; PushDescriptor returns every canonical
// expression registered.
func (c *Cache) PushDescriptor(expr string) ([]string, error) {
	parsed, err := descriptor.Parse(expr, c.network)
	if err != nil {
		return nil, err
	}

	expressions := make([]string, len(parsed))
	for i, d := range parsed {
		entry := &descriptorEntry{
			expression:  d.Expression,
			parsed:      d,
			highestUsed: -1,
		}
		idx := len(c.descriptors)
		c.descriptors = append(c.descriptors, entry)

		if err := c.extendDescriptor(idx); err != nil {
			return nil, err
		}
		expressions[i] = entry.expression
	}

	return expressions, nil
}

// DeriveAddresses forces derivation of count further scripts beyond
// whatever the descriptor at descriptorIndex (as reported by
// ListDescriptors) currently holds, independent of the gap-limit policy.
// It is a no-op on a fixed (non-wildcard) descriptor once its one script
// exists.
func (c *Cache) DeriveAddresses(descriptorIndex int, count uint32) error {
	if descriptorIndex < 0 || descriptorIndex >= len(c.descriptors) {
		return ErrDescriptorNotFound
	}

	entry := c.descriptors[descriptorIndex]
	if !entry.parsed.IsWildcard() {
		return c.extendDescriptor(descriptorIndex)
	}
	target := uint32(len(entry.scripts)) + count
	return c.deriveUpTo(descriptorIndex, target)
}

// extendDescriptor derives scripts for the descriptor at index until the
// gap-limit invariant holds: at least gapLimit consecutive unused scripts
// follow the highest used index. Fixed descriptors derive exactly one
// script and never extend further.
func (c *Cache) extendDescriptor(index int) error {
	entry := c.descriptors[index]

	if !entry.parsed.IsWildcard() {
		if len(entry.scripts) == 0 {
			return c.deriveUpTo(index, 1)
		}
		return nil
	}

	target := c.gapLimit
	if entry.highestUsed >= 0 {
		target = uint32(entry.highestUsed+1) + c.gapLimit
	}
	return c.deriveUpTo(index, target)
}

func (c *Cache) deriveUpTo(index int, target uint32) error {
	entry := c.descriptors[index]

	for uint32(len(entry.scripts)) < target {
		i := uint32(len(entry.scripts))

		script, err := entry.parsed.DeriveScript(i)
		if err != nil {
			return err
		}
		h := scripthash.Compute(script)

		entry.scripts = append(entry.scripts, h)
		c.scriptOwner[h] = scriptLocation{descriptorIdx: index, derivationIdx: i}

		if _, exists := c.addressMap[h]; !exists {
			addr := &store.Address{ScriptHash: h, Script: script}
			c.addressMap[h] = addr
			c.scriptSet[h] = struct{}{}
			if err := c.store.SaveAddress(addr); err != nil {
				return fmt.Errorf("%w: save derived address: %v", store.ErrStore, err)
			}
		}
	}

	return c.store.SaveDescriptor(&store.DescriptorRecord{
		Expression:      entry.expression,
		DerivationIndex: uint32(len(entry.scripts)),
	})
}

// markUsed records that the script at h's owning descriptor index has been
// observed paying a transaction, and extends that descriptor's derivation
// if the gap-limit invariant no longer holds. Scripts registered directly
// via CacheAddress (not owned by any descriptor) are a no-op here.
func (c *Cache) markUsed(h scripthash.ScriptHash) error {
	loc, ok := c.scriptOwner[h]
	if !ok {
		return nil
	}

	entry := c.descriptors[loc.descriptorIdx]
	if int64(loc.derivationIdx) > entry.highestUsed {
		entry.highestUsed = int64(loc.derivationIdx)
	}

	return c.extendDescriptor(loc.descriptorIdx)
}

// CacheAddress registers a raw output script for tracking directly,
// without an owning descriptor. Idempotent.
func (c *Cache) CacheAddress(script []byte) error {
	h := scripthash.Compute(script)
	if _, exists := c.addressMap[h]; exists {
		return nil
	}

	addr := &store.Address{ScriptHash: h, Script: script}
	c.addressMap[h] = addr
	c.scriptSet[h] = struct{}{}

	if err := c.store.SaveAddress(addr); err != nil {
		return fmt.Errorf("%w: save cached address: %v", store.ErrStore, err)
	}
	return nil
}

// ListDescriptors returns every registered descriptor's canonical
// expression, in registration order.
func (c *Cache) ListDescriptors() []string {
	out := make([]string, len(c.descriptors))
	for i, e := range c.descriptors {
		out[i] = e.expression
	}
	return out
}
