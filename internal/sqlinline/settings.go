package sqlinline

const QSelectUserSetting = `--sql 90d780b2-bcfb-4d28-a477-a06bb4051df1
select settings
from user_settings
where user_id = $1::uuid and kind = $2::text
limit 1;
`

const QSelectRecentArticles = `--sql 88a7f941-5f32-49b4-b9e6-253b53de6f37
select title, coalesce(slug, ''), coalesce(url, ''), coalesce(primary_keyword, ''), published_at
from articles
where user_id = $1::uuid and published_at is not null
order by published_at desc
limit $2::int;
`
