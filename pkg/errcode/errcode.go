package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError
	CreateFileError

	// Logging errors
	CreateLogFileError

	// Configuration errors
	ConfigError

	// Input errors
	InputFileError
	InputHeaderError
	RowError

	// Document store errors
	StoreConnectionError
	StoreNotConnectedError
	StoreQueryError
	StoreSchemaError
	StoreGORMConnectionError
	UpsertError
	StoreError

	// Object store errors
	ObjectStoreConnectionError
	UploadError

	// Image fetch errors
	FetchError

	// Run outcome errors
	CancelledError
	PartialFailureError
)
