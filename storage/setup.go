// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/fault"
)

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentDBVersion = 0x100
)

// Handle - an open store
type Handle struct {
	sync.RWMutex
	db  *leveldb.DB
	log *logger.L
}

// Open - open or create the store in the given directory
//
// any failure is reported as fault.StorageUnavailable so the caller
// can decide to run without persistence
func Open(database string) (*Handle, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(database, opt)
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.StorageUnavailable, err)
	}
	return setup(db, database)
}

// OpenMemory - open an empty store that is discarded on Close
func OpenMemory() (*Handle, error) {
	db, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.StorageUnavailable, err)
	}
	return setup(db, "memory")
}

func setup(db *leveldb.DB, name string) (*Handle, error) {
	log := logger.New("storage")

	version, err := getVersion(db)
	if nil != err {
		db.Close()
		return nil, fmt.Errorf("%w: %s", fault.StorageUnavailable, err)
	}

	// ensure no database downgrade
	if version > currentDBVersion {
		log.Criticalf("database: %s  version: %d > current version: %d", name, version, currentDBVersion)
		db.Close()
		return nil, fmt.Errorf("%w: %s", fault.StorageUnavailable, fault.UnsupportedVersion)
	}

	if 0 == version {
		// database was empty so tag as current version
		err = putVersion(db, currentDBVersion)
		if nil != err {
			db.Close()
			return nil, fmt.Errorf("%w: %s", fault.StorageUnavailable, err)
		}
		log.Infof("database: %s  initialised at version: %d", name, currentDBVersion)
	}

	return &Handle{
		db:  db,
		log: log,
	}, nil
}

func getVersion(db *leveldb.DB) (int, error) {
	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return 0, nil
	} else if nil != err {
		return 0, err
	}

	if 4 != len(versionValue) {
		return 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	return int(binary.BigEndian.Uint32(versionValue)), nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}

// Close - release the database, further calls fail with fault.NotInitialised
func (h *Handle) Close() error {
	h.Lock()
	defer h.Unlock()

	if nil == h.db {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}
