package sqlinline

const QSelectJobByID = `--sql a6cf3a0c-227e-44a6-9d80-5f6477608da0
select id::text, user_id::text, status, request, started_at, metadata,
    result, error_message, created_at, updated_at
from article_jobs
where id = $1::uuid;
`

// QPersistCheckpoint writes status, metadata, result and error in one
// statement. A null result keeps the stored one.
const QPersistCheckpoint = `--sql b752b688-43d6-4356-b10b-e3d7c07321f4
update article_jobs
set status = $2::text,
    metadata = $3::jsonb,
    result = coalesce($4::jsonb, result),
    error_message = nullif($5::text, ''),
    updated_at = now()
where id = $1::uuid;
`
