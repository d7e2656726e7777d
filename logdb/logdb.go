// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb keeps a queryable log of committed calls, with the events and
// transfers they produced.
package logdb

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/delegation/thor"
	"github.com/vechain/delegation/xenv"
)

type LogDB struct {
	path          string
	db            *sql.DB
	stmtCache     *stmtCache
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// every connection to ":memory:" opens a distinct database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(receiptTableSchema + eventTableSchema + transferTableSchema); err != nil {
		return nil, errors.Wrap(err, "create tables")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		stmtCache:     newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the linked sqlite library.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// NewestSeq returns the sequence number of the last written receipt, 0 if
// none.
func (db *LogDB) NewestSeq() (uint64, error) {
	stmt, err := db.stmtCache.Prepare("SELECT IFNULL(MAX(seq), 0) FROM receipt")
	if err != nil {
		return 0, err
	}
	var seq uint64
	if err := stmt.QueryRow().Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// Write stores the receipt along with its events and transfers in one
// transaction. Writing a sequence number again replaces the old records.
func (db *LogDB) Write(receipt *Receipt, events []*xenv.Event, transfers []*xenv.Transfer) (err error) {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	seq := receipt.Seq
	for _, table := range []string{"receipt", "event", "transfer"} {
		if _, err = tx.Exec("DELETE FROM "+table+" WHERE seq = ?", seq); err != nil {
			return err
		}
	}

	value := receipt.Value
	if value == nil {
		value = new(big.Int)
	}
	if _, err = tx.Exec("INSERT INTO receipt(seq, id, caller, method, value, gasUsed) VALUES (?, ?, ?, ?, ?, ?)",
		seq,
		receipt.ID.Bytes(),
		receipt.Caller.Bytes(),
		receipt.Method,
		value.Bytes(),
		receipt.GasUsed,
	); err != nil {
		return err
	}

	for i, ev := range events {
		var event *Event
		if event, err = newEvent(seq, uint32(i), ev); err != nil {
			return errors.Wrapf(err, "encode event %v", ev.Name)
		}
		if _, err = tx.Exec("INSERT INTO event(seq, eventIndex, address, name, data) VALUES (?, ?, ?, ?, ?)",
			event.Seq,
			event.Index,
			event.Address.Bytes(),
			event.Name,
			event.Data,
		); err != nil {
			return err
		}
	}

	for i, tr := range transfers {
		transfer := newTransfer(seq, uint32(i), tr)
		if _, err = tx.Exec("INSERT INTO transfer(seq, transferIndex, recipient, amount, memo) VALUES (?, ?, ?, ?, ?)",
			transfer.Seq,
			transfer.Index,
			transfer.Recipient.Bytes(),
			transfer.Amount.Bytes(),
			transfer.Memo,
		); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	metricsHandleWrite(len(events), len(transfers))
	return nil
}

// where appends the range condition and returns the statement and its args.
func where(stmt string, rng *Range) (string, []any) {
	var args []any
	stmt += " WHERE 1"
	if rng != nil {
		args = append(args, rng.From)
		stmt += " AND seq >= ?"
		if rng.To >= rng.From {
			args = append(args, rng.To)
			stmt += " AND seq <= ?"
		}
	}
	return stmt, args
}

func orderAndLimit(stmt string, args []any, order Order, index string, opts *Options) (string, []any) {
	dir := "ASC"
	if order == DESC {
		dir = "DESC"
	}
	if index == "" {
		stmt += fmt.Sprintf(" ORDER BY seq %v", dir)
	} else {
		stmt += fmt.Sprintf(" ORDER BY seq %v, %v %v", dir, index, dir)
	}
	if opts != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, opts.Offset, opts.Limit)
	}
	return stmt, args
}

func (db *LogDB) FilterReceipts(ctx context.Context, filter *ReceiptFilter) ([]*Receipt, error) {
	if filter == nil {
		filter = &ReceiptFilter{}
	}
	metricsHandleQuery("receipt", filter.Order, filter.Options)

	stmt, args := where("SELECT seq, id, caller, method, value, gasUsed FROM receipt", filter.Range)
	if filter.Caller != nil {
		args = append(args, filter.Caller.Bytes())
		stmt += " AND caller = ?"
	}
	if filter.Method != "" {
		args = append(args, filter.Method)
		stmt += " AND method = ?"
	}
	stmt, args = orderAndLimit(stmt, args, filter.Order, "", filter.Options)

	rows, err := db.query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*Receipt
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			r      Receipt
			id     []byte
			caller []byte
			value  []byte
		)
		if err := rows.Scan(&r.Seq, &id, &caller, &r.Method, &value, &r.GasUsed); err != nil {
			return nil, err
		}
		r.ID = thor.BytesToBytes32(id)
		r.Caller = thor.BytesToAddress(caller)
		r.Value = new(big.Int).SetBytes(value)
		receipts = append(receipts, &r)
	}
	return receipts, rows.Err()
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		filter = &EventFilter{}
	}
	metricsHandleQuery("event", filter.Order, filter.Options)

	stmt, args := where("SELECT seq, eventIndex, address, name, data FROM event", filter.Range)
	if filter.Name != "" {
		args = append(args, filter.Name)
		stmt += " AND name = ?"
	}
	stmt, args = orderAndLimit(stmt, args, filter.Order, "eventIndex", filter.Options)

	rows, err := db.query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			ev      Event
			address []byte
		)
		if err := rows.Scan(&ev.Seq, &ev.Index, &address, &ev.Name, &ev.Data); err != nil {
			return nil, err
		}
		ev.Address = thor.BytesToAddress(address)
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (db *LogDB) FilterTransfers(ctx context.Context, filter *TransferFilter) ([]*Transfer, error) {
	if filter == nil {
		filter = &TransferFilter{}
	}
	metricsHandleQuery("transfer", filter.Order, filter.Options)

	stmt, args := where("SELECT seq, transferIndex, recipient, amount, memo FROM transfer", filter.Range)
	if filter.Recipient != nil {
		args = append(args, filter.Recipient.Bytes())
		stmt += " AND recipient = ?"
	}
	stmt, args = orderAndLimit(stmt, args, filter.Order, "transferIndex", filter.Options)

	rows, err := db.query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*Transfer
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			tr        Transfer
			recipient []byte
			amount    []byte
		)
		if err := rows.Scan(&tr.Seq, &tr.Index, &recipient, &amount, &tr.Memo); err != nil {
			return nil, err
		}
		tr.Recipient = thor.BytesToAddress(recipient)
		tr.Amount = new(big.Int).SetBytes(amount)
		transfers = append(transfers, &tr)
	}
	return transfers, rows.Err()
}

func (db *LogDB) query(ctx context.Context, stmt string, args ...any) (*sql.Rows, error) {
	prepared, err := db.stmtCache.Prepare(stmt)
	if err != nil {
		return nil, err
	}
	return prepared.QueryContext(ctx, args...)
}
