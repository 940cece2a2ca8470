// Package chain implements the Policast contract client on top of
// go-ethereum. View functions are read through eth_call with packed ABI
// data; writes are signed with the operator key and submitted directly.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/policastlabs/policastd/internal/domain"
)

const (
	defaultGasLimit        = 1_500_000
	defaultReceiptInterval = 2 * time.Second
	defaultReceiptTimeout  = 2 * time.Minute
)

// MaxUint256 is the unlimited ERC-20 approval amount. Approving the maximum
// avoids a second approval round-trip on every future spend.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ClientConfig holds the chain connection and operator wallet parameters.
type ClientConfig struct {
	RPCURL          string
	ChainID         int64
	ContractAddress string
	PrivateKeyHex   string // 32-byte hex, with or without 0x prefix
	GasLimit        uint64
	ReceiptInterval time.Duration
	ReceiptTimeout  time.Duration
}

// Client talks to the Policast contract and its betting token.
type Client struct {
	eth      *ethclient.Client
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	contract common.Address

	policast abi.ABI
	erc20    abi.ABI

	gasLimit        uint64
	receiptInterval time.Duration
	receiptTimeout  time.Duration

	logger *slog.Logger
}

// New dials the RPC endpoint, parses the embedded ABIs, and loads the
// operator key. The key is required: all writes are signed with it.
func New(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial rpc %q: %w", cfg.RPCURL, err)
	}

	policastParsed, err := abi.JSON(strings.NewReader(policastABI))
	if err != nil {
		return nil, fmt.Errorf("chain: parse policast abi: %w", err)
	}
	erc20Parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("chain: parse erc20 abi: %w", err)
	}

	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse operator key: %w", err)
	}

	c := &Client{
		eth:             eth,
		key:             key,
		from:            ethcrypto.PubkeyToAddress(key.PublicKey),
		chainID:         big.NewInt(cfg.ChainID),
		contract:        common.HexToAddress(cfg.ContractAddress),
		policast:        policastParsed,
		erc20:           erc20Parsed,
		gasLimit:        cfg.GasLimit,
		receiptInterval: cfg.ReceiptInterval,
		receiptTimeout:  cfg.ReceiptTimeout,
		logger:          logger.With(slog.String("component", "chain")),
	}
	if c.gasLimit == 0 {
		c.gasLimit = defaultGasLimit
	}
	if c.receiptInterval <= 0 {
		c.receiptInterval = defaultReceiptInterval
	}
	if c.receiptTimeout <= 0 {
		c.receiptTimeout = defaultReceiptTimeout
	}
	return c, nil
}

// Operator returns the address derived from the operator key. Reads that
// depend on "the user" (shares, allowance) default to this address.
func (c *Client) Operator() common.Address {
	return c.from
}

// ContractAddress returns the Policast contract address.
func (c *Client) ContractAddress() common.Address {
	return c.contract
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// call executes a view function and returns the unpacked outputs.
func (c *Client) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...any) ([]any, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	res, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}

	out, err := parsed.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return out, nil
}

// submit packs, signs, and sends a state-changing transaction, returning its
// hash. Callers that need confirmation follow up with WaitMined.
func (c *Client) submit(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...any) (common.Hash, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pending nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      c.gasLimit,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: sign %s: %w", method, err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("chain: send %s: %w", method, err)
	}

	c.logger.InfoContext(ctx, "transaction submitted",
		slog.String("method", method),
		slog.String("tx_hash", signed.Hash().Hex()),
	)
	return signed.Hash(), nil
}

// WaitMined polls for the receipt of the given transaction until it is mined
// or the receipt timeout elapses. A mined-but-reverted transaction is an
// error.
func (c *Client) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.receiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("chain: transaction %s: %w", hash.Hex(), domain.ErrTxFailed)
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("chain: wait for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
