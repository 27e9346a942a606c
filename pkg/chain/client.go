// Package chain anchors traceability records on an Ethereum contract.
// Every submission is synchronous: the caller gets the transaction hash
// back only after the transaction is mined.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mhsadiq/cartrace-backend/pkg/config"
	apperrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
)

// Contract method names, also used as metric labels.
const (
	MethodLogStageEvent = "logStageEvent"
	MethodLogOrder      = "logOrder"
	MethodLogOrderItem  = "logOrderItem"
)

const contractABI = `[
	{"type":"function","name":"logStageEvent","stateMutability":"nonpayable","inputs":[{"name":"tagUid","type":"bytes32"},{"name":"stage","type":"bytes32"},{"name":"status","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"logOrder","stateMutability":"nonpayable","inputs":[{"name":"orderId","type":"uint256"},{"name":"carRfid","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"logOrderItem","stateMutability":"nonpayable","inputs":[{"name":"orderId","type":"uint256"},{"name":"itemUid","type":"bytes32"},{"name":"stage","type":"bytes32"}],"outputs":[]}
]`

// Client wraps the traceability contract behind typed submit methods.
//
// A single signing key backs all submissions, so sends are serialized with a
// mutex: the transactor fetches the pending nonce per transaction and two
// concurrent sends would otherwise collide.
type Client struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	opts     *bind.TransactOpts

	confirmTimeout time.Duration

	mu sync.Mutex
}

// New dials the RPC endpoint and binds the traceability contract.
func New(ctx context.Context, cfg config.ChainConfig) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("chain rpc url is required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing chain private key: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dialing chain rpc: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("parsing contract abi: %w", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("building transactor: %w", err)
	}
	if cfg.GasLimit > 0 {
		opts.GasLimit = cfg.GasLimit
	}

	address := common.HexToAddress(cfg.ContractAddress)
	contract := bind.NewBoundContract(address, parsed, eth, eth, eth)

	return &Client{
		eth:            eth,
		contract:       contract,
		opts:           opts,
		confirmTimeout: cfg.ConfirmTimeout,
	}, nil
}

// LogStageEvent anchors a tag's stage transition and returns the mined
// transaction hash.
func (c *Client) LogStageEvent(ctx context.Context, tagUID, stage, status string) (string, error) {
	return c.submit(ctx, MethodLogStageEvent, toBytes32(tagUID), toBytes32(stage), toBytes32(status))
}

// LogOrder anchors a newly registered order.
func (c *Client) LogOrder(ctx context.Context, orderID int64, carRFID string) (string, error) {
	return c.submit(ctx, MethodLogOrder, big.NewInt(orderID), toBytes32(carRFID))
}

// LogOrderItem anchors a component association.
func (c *Client) LogOrderItem(ctx context.Context, orderID int64, itemUID, stage string) (string, error) {
	return c.submit(ctx, MethodLogOrderItem, big.NewInt(orderID), toBytes32(itemUID), toBytes32(stage))
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) submit(ctx context.Context, method string, args ...any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := *c.opts
	opts.Context = ctx

	tx, err := c.contract.Transact(&opts, method, args...)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeDependency, err, fmt.Sprintf("submitting %s transaction", method))
	}

	waitCtx := ctx
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(waitCtx, c.eth, tx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeDependency, err, fmt.Sprintf("waiting for %s confirmation", method))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", apperrors.New(apperrors.CodeDependency, fmt.Sprintf("%s transaction reverted: %s", method, tx.Hash().Hex()))
	}

	return tx.Hash().Hex(), nil
}

// toBytes32 left-aligns short strings into a bytes32 word and hashes longer
// ones, mirroring how the contract derives its keys.
func toBytes32(s string) [32]byte {
	var out [32]byte
	b := []byte(s)
	if len(b) <= 32 {
		copy(out[:], b)
		return out
	}
	copy(out[:], crypto.Keccak256(b))
	return out
}
