package costledger

import "database/sql"

// addOperationLog records an operation for audit display. Logging failures
// are reported but never fail the operation itself.
func (c *Core) addOperationLog(operation string, batchID *string, details string) {
	var detailsVal any
	if details != "" {
		detailsVal = details
	}
	var batchVal any
	if batchID != nil {
		batchVal = *batchID
	}
	if _, err := c.db.Exec(
		"INSERT INTO operation_logs (operation_type, batch_id, details) VALUES (?, ?, ?)",
		operation, batchVal, detailsVal,
	); err != nil {
		c.logger.Warn("operation log insert failed", "operation", operation, "err", err)
	}
}

// GetOperationLogs returns recent operation logs, newest first.
func (c *Core) GetOperationLogs(limit, offset int) ([]OperationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := c.db.Query(
		"SELECT id, operation_type, batch_id, details, created_at FROM operation_logs ORDER BY id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load operation logs", err)
	}
	defer rows.Close()

	var logs []OperationLog
	for rows.Next() {
		var log OperationLog
		var batchID, details, createdAt sql.NullString
		if err := rows.Scan(&log.ID, &log.Operation, &batchID, &details, &createdAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan operation log", err)
		}
		if batchID.Valid {
			log.BatchID = &batchID.String
		}
		if details.Valid {
			log.Details = &details.String
		}
		if createdAt.Valid {
			log.CreatedAt = &createdAt.String
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
