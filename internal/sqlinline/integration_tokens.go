package sqlinline

// QSelectProviderToken returns the most recently written key of a provider.
const QSelectProviderToken = `--sql 4c2e8b17-93d5-4a6f-b0e1-7d58c3a9f264
select token
from integration_tokens
where provider = $1::text
  and token <> ''
order by updated_at desc
limit 1;
`

const QUpsertProviderToken = `--sql d91a6f03-5b2c-4e87-a4d0-2f6b9c1e8a75
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`
