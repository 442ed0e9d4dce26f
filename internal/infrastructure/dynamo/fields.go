package dynamo

// DynamoDB attribute names used in update and condition expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID              = "user_id"
	fieldEmail               = "email"
	fieldResetToken          = "reset_token"
	fieldResetTokenExpiresAt = "reset_token_expires_at"
	fieldUpdatedAt           = "updated_at"
)
