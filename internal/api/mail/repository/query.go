package mailRepository

const (
	queryUpsertAccount = `
		INSERT INTO gmail_accounts (
			user_id, email, access_token, refresh_token,
			token_type, expiry, created_at, updated_at
		) VALUES (
			:user_id, :email, :access_token, :refresh_token,
			:token_type, :expiry, :created_at, :updated_at
		)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), gmail_accounts.refresh_token),
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = EXCLUDED.updated_at
	`

	queryGetAccountByUserID = `
		SELECT
			user_id, email, access_token, refresh_token,
			token_type, expiry, created_at, updated_at
		FROM gmail_accounts
		WHERE user_id = :user_id
	`

	queryUpdateToken = `
		UPDATE gmail_accounts
		SET access_token = :access_token,
			refresh_token = :refresh_token,
			token_type = :token_type,
			expiry = :expiry,
			updated_at = :updated_at
		WHERE user_id = :user_id
	`

	queryDeleteAccount = `
		DELETE FROM gmail_accounts
		WHERE user_id = :user_id
	`
)
