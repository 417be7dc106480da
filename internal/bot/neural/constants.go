package neural

// NumAreas is the number of territories the value model was trained on:
// the 26 territories of the standard world map. Larger maps are
// truncated at encode time; smaller maps zero-pad.
const NumAreas = 26

// NumFeatures is the number of features per territory in the board tensor.
const NumFeatures = 6

// Feature offset constants matching the training pipeline.
const (
	FeatOwnSelf    = 0 // owned by the evaluating player
	FeatOwnEnemy   = 1 // owned by any other player
	FeatUnowned    = 2 // unowned
	FeatTroops     = 3 // garrison size, scaled by 1/TroopScale
	FeatWorth      = 4 // continent completion bonus, scaled by 1/WorthScale
	FeatVulnerable = 5 // owner currently flagged vulnerable
)

// TroopScale and WorthScale bring the numeric features into roughly [0,1].
const (
	TroopScale = 20.0
	WorthScale = 1000.0
)
