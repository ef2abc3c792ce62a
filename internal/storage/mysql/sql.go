package mysql

const insertReviewsPrefix = "INSERT INTO reviews\n  (review_id, seq, review_body, location, created_at)\nVALUES "

// Re-seeding the same dataset is idempotent.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  seq         = VALUES(seq),\n" +
	"  review_body = VALUES(review_body),\n" +
	"  location    = VALUES(location),\n" +
	"  created_at  = VALUES(created_at)\n"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// seq is the dataset row order, which the in-memory log preserves.
const listReviewsSQL = `
SELECT review_id, review_body, location, created_at
FROM reviews
ORDER BY seq
`

const countReviewsSQL = `SELECT COUNT(*) FROM reviews`
