package db

// SQL query fragments used across multiple functions
const (
	// sqlSinceClause filters request_log by a lower timestamp bound.
	sqlSinceClause = "WHERE ts >= ?"

	// sqlHourBucket truncates the stored timestamp to its hour.
	sqlHourBucket = "substr(ts, 1, 13)"
)
