// Command ixbuild creates a B+Tree secondary index over one attribute
// of a relation's heap file and bulk-loads it. If the index file
// already exists it is opened as it is and not reloaded.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cluso-db/bptreeindex/btree"
	"github.com/cluso-db/bptreeindex/internal/config"
	"github.com/cluso-db/bptreeindex/index"
	"github.com/cluso-db/bptreeindex/internal/heap"
	"github.com/cluso-db/bptreeindex/logger"
)

func main() {
	var (
		configPath     = flag.String("config", "", "path to TOML config (optional)")
		relation       = flag.String("relation", "", "relation name")
		heapFile       = flag.String("heap", "", "path to the source heap file")
		attrByteOffset = flag.Int("attr-offset", 0, "attribute byte offset within each record")
		attrTypeFlag   = flag.String("attr-type", "int", "attribute type: int|double|string")
	)
	flag.Parse()

	if err := logger.Init(logger.Config{LogLevel: "info"}); err != nil {
		logrus.Fatalf("ixbuild: init logger: %v", err)
	}
	if *relation == "" || *heapFile == "" {
		logger.Error("ixbuild: -relation and -heap are required")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Errorf("ixbuild: load config: %v", err)
			os.Exit(1)
		}
	}

	attrType, err := parseAttrType(*attrTypeFlag)
	if err != nil {
		logger.Errorf("ixbuild: %v", err)
		os.Exit(2)
	}

	scanner := heap.NewFileScanner(*heapFile, cfg.Storage.PageSize)
	h, err := index.Open(cfg.Storage.DataDir, *relation, int32(*attrByteOffset), attrType, cfg.Storage.PageSize, cfg.BufferPool.Frames, scanner)
	if err != nil {
		logger.Errorf("ixbuild: open index: %v", err)
		os.Exit(1)
	}
	defer h.Close()

	logger.Infof("ixbuild: built index %s attr_offset=%d", *relation, *attrByteOffset)
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
