package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ChainIDReader is satisfied by *Client and *ethclient.Client.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client is a thin RPC handle used to confirm the node matches the
// configured deployment.
type Client struct {
	eth *ethclient.Client
}

func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &Client{eth: eth}, nil
}

// ChainID returns the node's chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

func (c *Client) Close() { c.eth.Close() }

// VerifyChainID fails unless the node reports want. Vouchers are signed over
// the chain ID, so a mismatch would reject every voucher.
func VerifyChainID(ctx context.Context, r ChainIDReader, want int64) error {
	got, err := r.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}
	if got.Cmp(big.NewInt(want)) != 0 {
		return fmt.Errorf("chain id mismatch: node reports %s, configured %d", got, want)
	}
	return nil
}
