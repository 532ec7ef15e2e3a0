package cli

import "composer-quiz/internal/domain"

// builtinSamples is the catalog used when no external source is configured.
func builtinSamples() []domain.Sample {
	return []domain.Sample{
		{ID: 0, Composer: "Johann Sebastian Bach", URI: "https://samples.composer-quiz.dev/bach_goldberg_aria.mp3", ArtID: "bach"},
		{ID: 1, Composer: "Wolfgang Amadeus Mozart", URI: "https://samples.composer-quiz.dev/mozart_eine_kleine.mp3", ArtID: "mozart"},
		{ID: 2, Composer: "Ludwig van Beethoven", URI: "https://samples.composer-quiz.dev/beethoven_moonlight.mp3", ArtID: "beethoven"},
		{ID: 3, Composer: "Frédéric Chopin", URI: "https://samples.composer-quiz.dev/chopin_nocturne_op9.mp3", ArtID: "chopin"},
		{ID: 4, Composer: "Antonio Vivaldi", URI: "https://samples.composer-quiz.dev/vivaldi_spring.mp3", ArtID: "vivaldi"},
		{ID: 5, Composer: "Pyotr Ilyich Tchaikovsky", URI: "https://samples.composer-quiz.dev/tchaikovsky_swan_lake.mp3", ArtID: "tchaikovsky"},
		{ID: 6, Composer: "Claude Debussy", URI: "https://samples.composer-quiz.dev/debussy_clair_de_lune.mp3", ArtID: "debussy"},
		{ID: 7, Composer: "George Frideric Handel", URI: "https://samples.composer-quiz.dev/handel_water_music.mp3", ArtID: "handel"},
		{ID: 8, Composer: "Franz Schubert", URI: "https://samples.composer-quiz.dev/schubert_ave_maria.mp3", ArtID: "schubert"},
		{ID: 9, Composer: "Johannes Brahms", URI: "https://samples.composer-quiz.dev/brahms_hungarian_5.mp3", ArtID: "brahms"},
		{ID: 10, Composer: "Edvard Grieg", URI: "https://samples.composer-quiz.dev/grieg_morning_mood.mp3", ArtID: "grieg"},
		{ID: 11, Composer: "Erik Satie", URI: "https://samples.composer-quiz.dev/satie_gymnopedie_1.mp3", ArtID: "satie"},
	}
}
