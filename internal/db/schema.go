package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- QUESTION TABLE (stored student questions with answers)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS question SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS question ON question TYPE string;
    DEFINE FIELD IF NOT EXISTS answer ON question TYPE string;
    DEFINE FIELD IF NOT EXISTS content_id ON question TYPE string;
    DEFINE FIELD IF NOT EXISTS user_id ON question TYPE string;
    DEFINE FIELD IF NOT EXISTS question_type ON question TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS confidence ON question TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS model_used ON question TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS tokens_used ON question TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS response_time_ms ON question TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS created ON question TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS question_content ON question FIELDS content_id;
    DEFINE INDEX IF NOT EXISTS question_user ON question FIELDS content_id, user_id;
    DEFINE INDEX IF NOT EXISTS question_created ON question FIELDS created;

    -- ==========================================================================
    -- ANALYTICS_EVENT TABLE (usage tracking)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS analytics_event SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS type ON analytics_event TYPE string;
    DEFINE FIELD IF NOT EXISTS user_id ON analytics_event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS content_id ON analytics_event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS question_id ON analytics_event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS metadata ON analytics_event TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created ON analytics_event TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS event_type ON analytics_event FIELDS type;
    DEFINE INDEX IF NOT EXISTS event_content ON analytics_event FIELDS content_id;
    DEFINE INDEX IF NOT EXISTS event_created ON analytics_event FIELDS created;
`
