package models

import "testing"

// TestPaginationQueryNormalize 验证无效的分页参数回退到默认值
func TestPaginationQueryNormalize(t *testing.T) {
	cases := []struct {
		query    PaginationQuery
		wantNum  int
		wantSize int
	}{
		{PaginationQuery{PageNum: 2, PageSize: 20}, 2, 20},
		{PaginationQuery{PageNum: 0, PageSize: 0}, 1, 10},
		{PaginationQuery{PageNum: -3, PageSize: -1}, 1, 10},
		{PaginationQuery{PageNum: 1, PageSize: 500}, 1, 10},
		{PaginationQuery{PageNum: 1, PageSize: 100}, 1, 100},
	}

	for _, tc := range cases {
		gotNum, gotSize := tc.query.Normalize()
		if gotNum != tc.wantNum || gotSize != tc.wantSize {
			t.Errorf("查询%+v: 期望(%d, %d)，得到(%d, %d)",
				tc.query, tc.wantNum, tc.wantSize, gotNum, gotSize)
		}
	}
}

// TestNewPaginationResult 验证分页结果的构造
func TestNewPaginationResult(t *testing.T) {
	result := NewPaginationResult(57, 3, 10)
	if result.Total != 57 || result.PageNum != 3 || result.PageSize != 10 {
		t.Errorf("分页结果不匹配: %+v", result)
	}
}
