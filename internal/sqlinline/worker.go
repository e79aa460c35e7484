package sqlinline

// QWorkerClaimJob moves the oldest claimable job to processing. A job is
// claimable when pending, or when $1 > 0 and it has sat in an in-flight
// status for longer than $1 seconds; a reclaimed job gets retry_count + 1.
const QWorkerClaimJob = `--sql e50e337d-a133-44d1-aa3e-4b02f5003ab6
with next_job as (
    select id
    from article_jobs
    where status = 'pending'
       or ($1::int > 0
           and status in ('processing', 'research_completed', 'strategy_completed', 'content_completed', 'meta_completed')
           and started_at < now() - make_interval(secs => $1::int))
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update article_jobs j
    set status = 'processing',
        started_at = now(),
        updated_at = now(),
        metadata = case
            when j.status = 'pending' then coalesce(j.metadata, '{}'::jsonb)
            else jsonb_set(coalesce(j.metadata, '{}'::jsonb), '{retry_count}',
                to_jsonb(coalesce((j.metadata->>'retry_count')::int, 0) + 1))
        end
    where j.id in (select id from next_job)
    returning j.id::text, j.user_id::text, j.status, j.request, j.started_at, j.metadata,
        j.result, j.error_message, j.created_at, j.updated_at
)
select * from updated;
`
