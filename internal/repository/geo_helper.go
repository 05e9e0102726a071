package repository

import (
	"github.com/paulmach/orb"

	"SpotMap-App/internal/domain/model"
)

// CoordinateToPoint model.Coordinate を orb.Point に変換
func CoordinateToPoint(coordinate *model.Coordinate) *orb.Point {
	if coordinate == nil {
		return nil
	}

	point := orb.Point{coordinate.Longitude, coordinate.Latitude}
	return &point
}

// PointToCoordinate orb.Point を model.Coordinate に変換
func PointToCoordinate(point *orb.Point) *model.Coordinate {
	if point == nil {
		return nil
	}

	return &model.Coordinate{
		Latitude:  point.Lat(),
		Longitude: point.Lon(),
	}
}

// ViewportBound 地図ビューポートの四隅から境界ボックスを作成
// min/maxの指定順が揺れていても Extend で正しい境界に直す
func ViewportBound(minLng, minLat, maxLng, maxLat float64) orb.Bound {
	bound := orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{minLng, minLat},
	}
	bound = bound.Extend(orb.Point{maxLng, maxLat})
	return bound
}

// ClipPoints 境界ボックス内の表示ポイントだけを残す
func ClipPoints(points []model.DisplayPoint, bound orb.Bound) []model.DisplayPoint {
	clipped := make([]model.DisplayPoint, 0, len(points))
	for _, point := range points {
		if bound.Contains(orb.Point{point.Longitude, point.Latitude}) {
			clipped = append(clipped, point)
		}
	}
	return clipped
}
