// Command ixscan opens an existing index and prints the record ids in
// a bounded key range.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/cluso-db/bptreeindex/btree"
	"github.com/cluso-db/bptreeindex/index"
	"github.com/cluso-db/bptreeindex/internal/config"
	"github.com/cluso-db/bptreeindex/logger"
)

func main() {
	var (
		configPath     = flag.String("config", "", "path to TOML config (optional)")
		relation       = flag.String("relation", "", "relation name")
		attrByteOffset = flag.Int("attr-offset", 0, "attribute byte offset within each record")
		attrTypeFlag   = flag.String("attr-type", "int", "attribute type: int|double|string")
		low            = flag.String("low", "", "low bound value")
		high           = flag.String("high", "", "high bound value")
		lowOp          = flag.String("low-op", "GTE", "GT|GTE")
		highOp         = flag.String("high-op", "LTE", "LT|LTE")
	)
	flag.Parse()

	if err := logger.Init(logger.Config{LogLevel: "info"}); err != nil {
		fmt.Fprintf(os.Stderr, "ixscan: init logger: %v\n", err)
		os.Exit(1)
	}
	if *relation == "" {
		logger.Error("ixscan: -relation is required")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Errorf("ixscan: load config: %v", err)
			os.Exit(1)
		}
	}

	attrType, err := parseAttrType(*attrTypeFlag)
	if err != nil {
		logger.Errorf("ixscan: %v", err)
		os.Exit(2)
	}

	h, err := index.Open(cfg.Storage.DataDir, *relation, int32(*attrByteOffset), attrType, cfg.Storage.PageSize, cfg.BufferPool.Frames, nil)
	if err != nil {
		logger.Errorf("ixscan: open index: %v", err)
		os.Exit(1)
	}
	defer h.Close()

	lowVal, highVal, err := parseBounds(attrType, *low, *high)
	if err != nil {
		logger.Errorf("ixscan: %v", err)
		os.Exit(2)
	}
	loOp, err := parseOp(*lowOp)
	if err != nil {
		logger.Errorf("ixscan: %v", err)
		os.Exit(2)
	}
	hiOp, err := parseOp(*highOp)
	if err != nil {
		logger.Errorf("ixscan: %v", err)
		os.Exit(2)
	}

	idx := h.Index()
	if err := idx.StartScan(lowVal, loOp, highVal, hiOp); err != nil {
		logger.Errorf("ixscan: start scan: %v", err)
		os.Exit(1)
	}
	defer idx.EndScan()

	for {
		rid, err := idx.ScanNext()
		if err == btree.ErrScanCompleted {
			break
		}
		if err != nil {
			logger.Errorf("ixscan: scan next: %v", err)
			os.Exit(1)
		}
		fmt.Printf("%s\n", rid.String())
	}
}

func parseAttrType(s string) (btree.AttrType, error) {
	switch s {
	case "int", "integer":
		return btree.AttrInteger, nil
	case "double", "float":
		return btree.AttrDouble, nil
	case "string":
		return btree.AttrString, nil
	default:
		return 0, fmt.Errorf("unknown attr-type %s", s)
	}
}

func parseOp(s string) (btree.Op, error) {
	switch s {
	case "LT":
		return btree.LT, nil
	case "LTE":
		return btree.LTE, nil
	case "GT":
		return btree.GT, nil
	case "GTE":
		return btree.GTE, nil
	default:
		return 0, fmt.Errorf("unknown operator %s", s)
	}
}

func parseBounds(attrType btree.AttrType, low, high string) (interface{}, interface{}, error) {
	switch attrType {
	case btree.AttrInteger:
		lo, err := strconv.ParseInt(low, 10, 32)
		if err != nil {
			return nil, nil, err
		}
		hi, err := strconv.ParseInt(high, 10, 32)
		if err != nil {
			return nil, nil, err
		}
		return int32(lo), int32(hi), nil
	case btree.AttrDouble:
		lo, err := strconv.ParseFloat(low, 64)
		if err != nil {
			return nil, nil, err
		}
		hi, err := strconv.ParseFloat(high, 64)
		if err != nil {
			return nil, nil, err
		}
		return lo, hi, nil
	case btree.AttrString:
		return btree.StringKeyFromString(low), btree.StringKeyFromString(high), nil
	default:
		return nil, nil, fmt.Errorf("unknown attr type %d", attrType)
	}
}
