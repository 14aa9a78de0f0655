// Package ethereum implements a GasPriceSource on top of eth_feeHistory.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/gas-genie/business/gas/domain"
	"github.com/fd1az/gas-genie/internal/apperror"
	"github.com/fd1az/gas-genie/internal/circuitbreaker"
	"github.com/fd1az/gas-genie/internal/logger"
)

const tracerName = "github.com/fd1az/gas-genie/business/gas/infra/ethereum"

// Reward percentiles requested per block, mapped to safe/propose/fast.
var rewardPercentiles = []float64{25, 50, 75}

// FeeHistoryReader is the subset of ethclient.Client used here.
type FeeHistoryReader interface {
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
}

// Config holds configuration for the fee-history source.
type Config struct {
	RPCURL     string
	BlockCount uint64
	Timeout    time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(rpcURL string) Config {
	return Config{
		RPCURL:     rpcURL,
		BlockCount: 20,
		Timeout:    10 * time.Second,
	}
}

// FeeHistorySource derives gas tiers from recent block rewards.
type FeeHistorySource struct {
	config Config
	logger logger.LoggerInterface

	client   FeeHistoryReader
	closer   func()
	clientMu sync.RWMutex

	cb     *circuitbreaker.CircuitBreaker[*ethereum.FeeHistory]
	tracer trace.Tracer
	now    func() time.Time
}

// NewFeeHistorySource creates a source. client may be nil, in which case
// Connect dials cfg.RPCURL.
func NewFeeHistorySource(cfg Config, client FeeHistoryReader, log logger.LoggerInterface) *FeeHistorySource {
	if cfg.BlockCount == 0 {
		cfg.BlockCount = 20
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &FeeHistorySource{
		config: cfg,
		logger: log,
		client: client,
		cb:     circuitbreaker.New[*ethereum.FeeHistory](circuitbreaker.DefaultConfig("fee-history")),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// Name identifies the source.
func (s *FeeHistorySource) Name() string {
	return "rpc"
}

// Healthy reports false before Connect succeeds or while the breaker is open.
func (s *FeeHistorySource) Healthy() (bool, string) {
	if !s.connected() {
		return false, "not connected"
	}
	return !s.cb.Open(), s.cb.State().String()
}

func (s *FeeHistorySource) connected() bool {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	return s.client != nil
}

// Connect dials the RPC endpoint unless a client is already set.
func (s *FeeHistorySource) Connect(ctx context.Context) error {
	if s.connected() {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "fee_history.connect",
		trace.WithAttributes(attribute.String("url", s.config.RPCURL)),
	)
	defer span.End()

	client, err := ethclient.DialContext(ctx, s.config.RPCURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect fee history source"))
	}

	s.clientMu.Lock()
	s.client = client
	s.closer = client.Close
	s.clientMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	s.logger.Info(ctx, "fee history source connected", "url", s.config.RPCURL)
	return nil
}

// Fetch reads fee history for the latest blocks and converts it.
func (s *FeeHistorySource) Fetch(ctx context.Context) (*domain.Observation, error) {
	ctx, span := s.tracer.Start(ctx, "fee_history.fetch",
		trace.WithAttributes(attribute.Int64("blocks", int64(s.config.BlockCount))),
	)
	defer span.End()

	s.clientMu.RLock()
	client := s.client
	s.clientMu.RUnlock()

	if client == nil {
		err := apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithContext("fee history source not connected"))
		span.RecordError(err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	history, err := s.cb.Execute(func() (*ethereum.FeeHistory, error) {
		return client.FeeHistory(ctx, s.config.BlockCount, nil, rewardPercentiles)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("eth_feeHistory failed"))
	}

	obs, err := ToObservation(history)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeGasSourceMalformed,
			apperror.WithCause(err),
			apperror.WithContext("eth_feeHistory result"))
	}
	obs.FetchedAt = s.now()

	span.SetAttributes(
		attribute.Float64("propose", obs.Propose),
		attribute.Float64("base_fee", obs.SuggestedBaseFee),
	)
	span.SetStatus(codes.Ok, "fetched")
	return obs, nil
}

// Close releases the RPC connection if this source dialed it.
func (s *FeeHistorySource) Close() error {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if s.closer != nil {
		s.closer()
		s.closer = nil
		s.client = nil
	}
	return nil
}

// ToObservation converts a fee history into tiered prices. Each tier is the
// next block's base fee plus the median reward at that percentile. Ratios are
// reordered newest first.
func ToObservation(h *ethereum.FeeHistory) (*domain.Observation, error) {
	if h == nil || len(h.BaseFee) == 0 {
		return nil, fmt.Errorf("empty fee history")
	}

	nextBaseFee := weiToGwei(h.BaseFee[len(h.BaseFee)-1])

	tiers := make([]float64, len(rewardPercentiles))
	for i := range rewardPercentiles {
		samples := make([]float64, 0, len(h.Reward))
		for _, block := range h.Reward {
			if i < len(block) && block[i] != nil {
				samples = append(samples, weiToGwei(block[i]))
			}
		}
		tiers[i] = nextBaseFee + median(samples)
	}

	ratios := make([]float64, len(h.GasUsedRatio))
	for i, r := range h.GasUsedRatio {
		ratios[len(ratios)-1-i] = r
	}
	if len(ratios) == 0 {
		ratios = []float64{0}
	}

	var lastBlock uint64
	if h.OldestBlock != nil && len(h.GasUsedRatio) > 0 {
		lastBlock = h.OldestBlock.Uint64() + uint64(len(h.GasUsedRatio)) - 1
	}

	return &domain.Observation{
		Safe:             tiers[0],
		Propose:          tiers[1],
		Fast:             tiers[2],
		SuggestedBaseFee: nextBaseFee,
		GasUsedRatio:     ratios,
		LastBlock:        lastBlock,
	}, nil
}

func weiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	return decimal.NewFromBigInt(wei, -9).InexactFloat64()
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
