package voiceRepository

const (
	queryCreateVoiceCommand = `
		INSERT INTO voice_commands (
			id, user_id, session_id, page, transcript,
			command, rule, target, item_index, response,
			outcome, created_at
		) VALUES (
			:id, :user_id, :session_id, :page, :transcript,
			:command, :rule, :target, :item_index, :response,
			:outcome, :created_at
		)
	`

	queryGetVoiceCommandsByUserID = `
		SELECT
			id, user_id, session_id, page, transcript,
			command, rule, target, item_index, response,
			outcome, created_at
		FROM voice_commands
		WHERE user_id = :user_id
		ORDER BY created_at DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountVoiceCommandsByUserID = `
		SELECT COUNT(*)
		FROM voice_commands
		WHERE user_id = :user_id
	`

	queryGetVoiceCommandsBySessionID = `
		SELECT
			id, user_id, session_id, page, transcript,
			command, rule, target, item_index, response,
			outcome, created_at
		FROM voice_commands
		WHERE session_id = :session_id
		ORDER BY created_at ASC
	`
)
