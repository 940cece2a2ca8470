package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BettingToken returns the ERC-20 token the Policast contract settles in.
func (c *Client) BettingToken(ctx context.Context) (common.Address, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getBettingToken")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// Allowance reads the ERC-20 spending cap the owner has granted the Policast
// contract on the betting token.
func (c *Client) Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	out, err := c.call(ctx, token, c.erc20, "allowance", owner, c.contract)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Approve grants the Policast contract an ERC-20 spending cap on the betting
// token and returns the transaction hash. Pass MaxUint256 for an unlimited
// approval.
func (c *Client) Approve(ctx context.Context, token common.Address, amount *big.Int) (common.Hash, error) {
	return c.submit(ctx, token, c.erc20, "approve", c.contract, amount)
}

// TokenBalance reads the owner's betting token balance.
func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	out, err := c.call(ctx, token, c.erc20, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: unexpected balanceOf result type %T", out[0])
	}
	return bal, nil
}
