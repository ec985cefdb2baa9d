package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"

	// Favorites and identity keys.
	FavoriteNotFound failure.ErrorCode = "FavoriteNotFound"
	InvalidMatchKey  failure.ErrorCode = "InvalidMatchKey"
	InvalidItemID    failure.ErrorCode = "InvalidItemID"
	InvalidSource    failure.ErrorCode = "InvalidSource"

	// Upstream search API.
	SearchFailed        failure.ErrorCode = "SearchFailed"
	UpstreamUnavailable failure.ErrorCode = "UpstreamUnavailable"

	// Price history.
	HistoryNotFound failure.ErrorCode = "HistoryNotFound"
)
