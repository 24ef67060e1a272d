// Package consumer adapts a chain source's validated-block delivery into
// calls against internal/facade.Facade. It plays the role the reference
// indexer's ZMQSubscriber/Writer pair plays for its UTXO-set indexer,
// narrowed to the single contract the chain source needs to honor: blocks
// arrive in canonical order, each height exactly once, only after
// validation.
package consumer

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/ripsline/btcwatch/internal/facade"
)

// BlockConsumer is the inbound contract a chain source drives.
type BlockConsumer struct {
	facade *facade.Facade
}

// New wraps f as a BlockConsumer.
func New(f *facade.Facade) *BlockConsumer {
	return &BlockConsumer{facade: f}
}

// OnBlock delivers a validated block at height to the façade. The chain
// source must call this exactly once per height, in increasing order.
func (b *BlockConsumer) OnBlock(block *wire.MsgBlock, height int32) error {
	if err := b.facade.ProcessBlock(block, height); err != nil {
		return fmt.Errorf("consumer: process block at height %d: %w", height, err)
	}
	return nil
}

// WantsSpentUTXOs reports whether the chain source must retain and deliver
// the previous output being spent by each input. This engine resolves
// spent values from its own transaction cache instead, so it never needs
// that extra delivery.
func (b *BlockConsumer) WantsSpentUTXOs() bool {
	return false
}
