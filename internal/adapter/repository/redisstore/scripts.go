package redisstore

import "github.com/redis/go-redis/v9"

// Hold layout, per schedule:
//
//	seathold:{<schedule>}:holds   HASH  holder -> "<seats>|<token>|<created_ms>"
//	seathold:{<schedule>}:expiry  ZSET  holder scored by expiry in unix ms
//
// Both keys share a hash tag so the scripts stay single-slot on a cluster.

// KEYS[1] holds, KEYS[2] expiry
// ARGV[1] now_ms, ARGV[2] ttl_ms, ARGV[3] holder, ARGV[4] seats,
// ARGV[5] token, ARGV[6] durable booked seats, ARGV[7] capacity
var acquireScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])
local holder = ARGV[3]
local seats = tonumber(ARGV[4])
local durable = tonumber(ARGV[6])
local capacity = tonumber(ARGV[7])

local expired = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', now)
for _, h in ipairs(expired) do
  redis.call('HDEL', KEYS[1], h)
end
if #expired > 0 then
  redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', now)
end

if redis.call('HEXISTS', KEYS[1], holder) == 1 then
  return {0, 'conflicting_hold', 0}
end

local held = 0
for _, v in ipairs(redis.call('HVALS', KEYS[1])) do
  held = held + tonumber(string.match(v, '^(%d+)'))
end

if durable + held + seats > capacity then
  return {0, 'insufficient_capacity', capacity - durable - held}
end

local expires = now + ttl
redis.call('HSET', KEYS[1], holder, ARGV[4] .. '|' .. ARGV[5] .. '|' .. ARGV[1])
redis.call('ZADD', KEYS[2], expires, holder)
if redis.call('PTTL', KEYS[1]) < ttl then
  redis.call('PEXPIRE', KEYS[1], ttl)
  redis.call('PEXPIRE', KEYS[2], ttl)
end
return {1, ARGV[5], expires}
`)

// KEYS[1] holds, KEYS[2] expiry
// ARGV[1] holder, ARGV[2] token or empty for any
var releaseScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], ARGV[1])
if not v then
  redis.call('ZREM', KEYS[2], ARGV[1])
  return 0
end
if ARGV[2] ~= '' and string.match(v, '^%d+|([^|]*)|') ~= ARGV[2] then
  return 0
end
redis.call('HDEL', KEYS[1], ARGV[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)

// KEYS[1] holds, KEYS[2] expiry
// ARGV[1] holder, ARGV[2] token or empty for any, ARGV[3] deadline_ms
var promoteScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], ARGV[1])
if not v then
  return 0
end
if ARGV[2] ~= '' and string.match(v, '^%d+|([^|]*)|') ~= ARGV[2] then
  return 0
end
local deadline = tonumber(ARGV[3])
local current = tonumber(redis.call('ZSCORE', KEYS[2], ARGV[1]))
if current == nil or deadline < current then
  redis.call('ZADD', KEYS[2], deadline, ARGV[1])
end
return 1
`)

// Read-only: sums every hold that has not expired by ARGV[1]. A hold with no
// expiry entry is counted, so availability can only be understated.
var liveSeatsScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local entries = redis.call('HGETALL', KEYS[1])
local held = 0
for i = 1, #entries, 2 do
  local score = redis.call('ZSCORE', KEYS[2], entries[i])
  if (not score) or tonumber(score) > now then
    held = held + tonumber(string.match(entries[i + 1], '^(%d+)'))
  end
end
return held
`)
