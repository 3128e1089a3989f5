// Package worker mirrors newly created transactions to the spreadsheet
// backup. It consumes the ledger event queue published by the server.
package worker

import (
	"context"
	"errors"
	"fmt"

	"registro/internal/amqp"
	"registro/internal/core"
	"registro/internal/log"
	"registro/internal/sheets"
	"registro/internal/store"
)

// Getter looks up a single transaction by id. Satisfied by the SQLite
// repository.
type Getter interface {
	Get(ctx context.Context, id string) (core.Transaction, error)
}

// Mirror appends created transactions to the spreadsheet. The mirror is
// an append-only journal: updates and deletes are acknowledged and
// logged, never replayed against the sheet.
type Mirror struct {
	store    Getter
	appender sheets.RowAppender
	logger   *log.Logger
}

func NewMirror(store Getter, appender sheets.RowAppender) *Mirror {
	return &Mirror{
		store:    store,
		appender: appender,
		logger:   log.Component(log.ComponentWorker),
	}
}

// HandleEvent processes one ledger event. A nil return acknowledges the
// message; an error requeues it.
func (m *Mirror) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	m.logger.InfoContext(ctx, "Processing ledger event",
		"action", event.Action,
		log.FieldTransactionID, event.TransactionID,
		log.FieldUserID, event.UserID)

	switch event.Action {
	case amqp.ActionCreated:
		return m.mirrorCreated(ctx, event)
	case amqp.ActionUpdated, amqp.ActionDeleted:
		m.logger.InfoContext(ctx, "Skipping non-create event",
			"action", event.Action,
			log.FieldTransactionID, event.TransactionID)
		return nil
	default:
		// Validate on the consume path makes this unreachable; keep the
		// event out of the queue anyway.
		m.logger.WarnContext(ctx, "Unknown ledger event action", "action", event.Action)
		return nil
	}
}

func (m *Mirror) mirrorCreated(ctx context.Context, event *amqp.LedgerEvent) error {
	tx, err := m.store.Get(ctx, event.TransactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted before the mirror caught up. Nothing to append.
			m.logger.WarnContext(ctx, "Transaction vanished before mirroring",
				log.FieldTransactionID, event.TransactionID)
			return nil
		}
		return fmt.Errorf("get transaction %s: %w", event.TransactionID, err)
	}

	ref, err := m.appender.AppendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("append transaction %s: %w", event.TransactionID, err)
	}

	m.logger.InfoContext(ctx, "Transaction mirrored",
		log.FieldTransactionID, event.TransactionID,
		log.FieldSheetsRef, ref,
		log.FieldCategory, tx.Category,
		log.FieldAmount, tx.Amount.String())

	return nil
}
