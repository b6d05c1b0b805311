package config

import "time"

// On-disk layout under the base directory.
const (
	ConfigFileName  = "config.yml"
	DataDirName     = "data"
	KeystoreDirName = "keystore"
	HistoryDirName  = "history"
	TrashDirName    = ".trash"

	defaultDirName = ".icon-cli"
)

// Timeouts used by the RPC and transaction layers.
const (
	HTTPTimeout      = 15 * time.Second // per JSON-RPC request
	TxConfirmTimeout = 2 * time.Minute  // waiting for a transaction result
	TxPollInterval   = 2 * time.Second  // between icx_getTransactionResult polls
)
