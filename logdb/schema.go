// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const receiptTableSchema = `
create table if not exists receipt (
	seq integer primary key,
	id blob(32),
	caller blob(20),
	method text,
	value blob,
	gasUsed integer
);

CREATE INDEX if not exists receiptCallerIndex on receipt(caller);
CREATE INDEX if not exists receiptMethodIndex on receipt(method);
`

const eventTableSchema = `
create table if not exists event (
	seq integer,
	eventIndex integer,
	address blob(20),
	name text,
	data blob,
	primary key (seq, eventIndex)
);

CREATE INDEX if not exists eventNameIndex on event(name);
`

const transferTableSchema = `
create table if not exists transfer (
	seq integer,
	transferIndex integer,
	recipient blob(20),
	amount blob,
	memo text,
	primary key (seq, transferIndex)
);

CREATE INDEX if not exists transferRecipientIndex on transfer(recipient);
`
