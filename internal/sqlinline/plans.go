package sqlinline

const QEnsureUserPlans = `--sql 25fc1ee1-742d-4964-90c5-1e0d568f3780
create table if not exists user_plans (
    user_id text primary key,
    plan text not null default 'free' check (plan in ('free', 'pro')),
    customer_id text,
    updated_at timestamptz not null default now()
);
`

const QSelectUserPlan = `--sql d3d13d31-cb39-42d0-81eb-4e168f279b3d
select
    user_id,
    plan,
    coalesce(customer_id, '') as customer_id,
    updated_at
from user_plans
where user_id = $1::text
limit 1;
`

// QUpsertUserPlan keeps the stored customer id when $3 is empty.
const QUpsertUserPlan = `--sql 6e871eb6-7b7a-4180-a7dc-4d8fbdd1081f
insert into user_plans (user_id, plan, customer_id, updated_at)
values ($1::text, $2::text, nullif($3::text, ''), now())
on conflict (user_id) do update set
    plan = excluded.plan,
    customer_id = coalesce(excluded.customer_id, user_plans.customer_id),
    updated_at = now()
returning user_id, plan, coalesce(customer_id, '') as customer_id, updated_at;
`
