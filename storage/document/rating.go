package documentdb

import "github.com/trezcool/learnbridge/core/rating"

var _ rating.Repository = (*DB)(nil)

func (db *DB) PrependRating(r rating.Rating) error {
	return db.update([]string{ColRatings}, func(doc *Document) error {
		doc.Ratings = append([]rating.Rating{r}, doc.Ratings...)
		return nil
	})
}

func (db *DB) QueryAllRatings() ([]rating.Rating, error) {
	var ratings []rating.Rating
	err := db.view(func(doc *Document) error {
		ratings = make([]rating.Rating, len(doc.Ratings))
		copy(ratings, doc.Ratings)
		return nil
	})
	return ratings, err
}
