package code

var (
	Success             = NewSuccess(200, "Success")
	SuccessNoOp         = NewSuccess(201, "Success, nothing to do")
	ErrorServerInternal = NewError(500, "Internal server error")

	ErrorInvalidParams   = NewError(4000, "Invalid request parameters")
	ErrorTooManyRequests = NewError(4001, "Too many requests")

	ErrorNotUserAuthToken     = NewError(4010, "Authorization token required")
	ErrorInvalidUserAuthToken = NewError(4011, "Authorization token invalid or expired")

	ErrorUserRegisterFailed = NewError(4100, "User registration failed")
	ErrorUserRegisterClosed = NewError(4101, "User registration is disabled")
	ErrorUserLoginFailed    = NewError(4102, "Email or password incorrect")
	ErrorUserNotExist       = NewError(4103, "User does not exist")
	ErrorUserEmailExist     = NewError(4104, "Email is already registered")

	ErrorNoteListFailed   = NewError(4200, "Listing notes failed")
	ErrorNoteCreateFailed = NewError(4201, "Creating note failed")
	ErrorNoteUpdateFailed = NewError(4202, "Updating note failed")
	ErrorNoteDeleteFailed = NewError(4203, "Deleting note failed")
	ErrorNoteVoteFailed   = NewError(4204, "Voting note failed")
	ErrorNoteNotExist     = NewError(4205, "Note does not exist")

	ErrorChannelJoinFailed = NewError(4300, "Joining channel failed")
	ErrorChannelNotJoined  = NewError(4301, "Channel not joined")
	ErrorBroadcastFailed   = NewError(4302, "Broadcast failed")
	ErrorPresenceFailed    = NewError(4303, "Presence update failed")
)
